package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"socialgram/database"
	"socialgram/drive"
	"socialgram/handlers"
	"socialgram/middleware"
	"socialgram/push"
	"socialgram/routes"
	"socialgram/sheets"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is required")
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	db, err := connectWithRetry(mongoURI, envOr("MONGODB_DATABASE", "socialgram"))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := database.Disconnect(db); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()
	log.Println("✅ Connected to MongoDB")

	mirror := setupSheets()
	driveSvc := drive.New(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		os.Getenv("GOOGLE_REDIRECT_URI"),
	)
	if driveSvc == nil {
		log.Println("⚠️  Google Drive OAuth not configured, media uploads disabled")
	}
	pushSender := setupPush(db)

	h := handlers.New(db, []byte(jwtSecret), mirror, driveSvc, pushSender)

	users := db.Collection(database.Users)
	auth := middleware.JWTAuth([]byte(jwtSecret), func(ctx context.Context, id primitive.ObjectID) (bool, error) {
		err := users.FindOne(ctx, bson.M{"_id": id},
			options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	})

	router := routes.Setup(h, auth)

	srv := &http.Server{
		Addr:         ":" + envOr("PORT", "8080"),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on port %s", envOr("PORT", "8080"))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func connectWithRetry(uri, name string) (*mongo.Database, error) {
	var db *mongo.Database
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		db, err = database.Connect(uri, name)
		if err == nil {
			return db, nil
		}
		log.Printf("MongoDB connection attempt %d failed: %v", attempt, err)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	return nil, err
}

func setupSheets() *sheets.Mirror {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	credentialsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE")
	if spreadsheetID == "" || credentialsFile == "" {
		log.Println("⚠️  Google Sheets mirroring not configured")
		return nil
	}

	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		log.Printf("⚠️  Failed to read Google credentials file: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mirror, err := sheets.New(ctx, spreadsheetID, credentials)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Google Sheets client: %v", err)
		return nil
	}

	if os.Getenv("INIT_SHEETS") == "1" {
		if err := mirror.Init(ctx); err != nil {
			log.Printf("⚠️  Failed to write sheet headers: %v", err)
		}
	}

	log.Println("✅ Google Sheets mirroring enabled")
	return mirror
}

func setupPush(db *mongo.Database) *push.Sender {
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")
	privateKey := os.Getenv("VAPID_PRIVATE_KEY")
	if publicKey == "" || privateKey == "" {
		// Ephemeral keys keep push working in development; subscriptions
		// made against them die on restart.
		var err error
		privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Printf("⚠️  Failed to generate VAPID keys, push disabled: %v", err)
			return nil
		}
		log.Println("⚠️  VAPID keys not set, generated an ephemeral pair")
	}

	return push.NewSender(
		db.Collection(database.Subscriptions),
		publicKey, privateKey,
		os.Getenv("VAPID_SUBSCRIBER"),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
