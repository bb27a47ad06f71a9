package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	SecretKey   []byte
	DatabaseURL string
	Port        string

	BotToken    string
	AdminChatID string
)

func Init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found, using environment variables")
	}

	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT secret key not set")
	}
	SecretKey = []byte(secret)

	DatabaseURL = os.Getenv("DATABASE_URL")
	if DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "8080"
	}

	// optional; the notification side channel stays silent without them
	BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	AdminChatID = os.Getenv("TELEGRAM_ADMIN_CHAT_ID")
}
