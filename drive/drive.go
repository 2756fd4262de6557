// Package drive wraps the per-user Google Drive connection: the OAuth
// consent lifecycle and media uploads into the shared app folder.
package drive

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"socialgram/models"
)

const appFolderName = "SocialMediaApp"

type Service struct {
	config *oauth2.Config
}

// New returns nil when the OAuth client is not configured, which disables
// the whole drive surface.
func New(clientID, clientSecret, redirectURL string) *Service {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &Service{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				driveapi.DriveFileScope,
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthURL returns the consent URL the client should open.
func (s *Service) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the authorization code for the user's token bundle.
func (s *Service) Exchange(ctx context.Context, code string) (*models.DriveTokens, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return &models.DriveTokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiryDate:   token.Expiry.UnixMilli(),
	}, nil
}

// Upload stores the file in the user's drive under the app folder and makes
// it world-readable so media links resolve without auth.
func (s *Service) Upload(ctx context.Context, tokens *models.DriveTokens, fileName, mimeType string, body io.Reader) (*models.MediaFile, error) {
	svc, err := s.clientFor(ctx, tokens)
	if err != nil {
		return nil, err
	}

	folderID, err := s.getOrCreateFolder(ctx, svc)
	if err != nil {
		return nil, err
	}

	file, err := svc.Files.Create(&driveapi.File{
		Name:    fileName,
		Parents: []string{folderID},
	}).
		Media(body).
		Fields("id, name, webViewLink, thumbnailLink, mimeType").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	_, err = svc.Permissions.Create(file.Id, &driveapi.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	return &models.MediaFile{
		FileID:        file.Id,
		FileName:      file.Name,
		MimeType:      file.MimeType,
		WebViewLink:   file.WebViewLink,
		ThumbnailLink: file.ThumbnailLink,
	}, nil
}

// Delete removes a previously uploaded file.
func (s *Service) Delete(ctx context.Context, tokens *models.DriveTokens, fileID string) error {
	svc, err := s.clientFor(ctx, tokens)
	if err != nil {
		return err
	}
	return svc.Files.Delete(fileID).Context(ctx).Do()
}

// clientFor builds a Drive client on a self-refreshing token source, so an
// expired access token is renewed with the stored refresh token.
func (s *Service) clientFor(ctx context.Context, tokens *models.DriveTokens) (*driveapi.Service, error) {
	tok := &oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       time.UnixMilli(tokens.ExpiryDate),
	}
	return driveapi.NewService(ctx, option.WithTokenSource(s.config.TokenSource(ctx, tok)))
}

func (s *Service) getOrCreateFolder(ctx context.Context, svc *driveapi.Service) (string, error) {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false", appFolderName)
	list, err := svc.Files.List().Q(query).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := svc.Files.Create(&driveapi.File{
		Name:     appFolderName,
		MimeType: "application/vnd.google-apps.folder",
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return folder.Id, nil
}
