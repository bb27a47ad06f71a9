// Package telegram is the best-effort side channel to the Telegram Bot
// API. Callers on the order path treat every failure as log-and-move-on;
// nothing here retries or queues.
package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ray-remotestate/smartmenu/config"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	clientTimeout  = 10 * time.Second
)

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

func New(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Default is the process-wide client, set up from config at boot.
var Default *Client

func Init() {
	Default = New(config.BotToken)
}

func Configured() bool {
	return Default != nil && Default.token != ""
}

func SendMessage(chatID, text string) error {
	if !Configured() {
		return fmt.Errorf("telegram bot token not configured")
	}
	return Default.SendMessage(chatID, text)
}

func BotLink() (string, string, error) {
	if !Configured() {
		return "", "", fmt.Errorf("telegram bot token not configured")
	}
	return Default.BotLink()
}

// SendMessage posts an HTML-formatted message to a chat.
func (c *Client) SendMessage(chatID, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")

	resp, err := c.httpClient.Post(endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}

// BotLink resolves the bot's public deep link via getMe.
func (c *Client) BotLink() (link string, username string, err error) {
	endpoint := fmt.Sprintf("%s/bot%s/getMe", c.baseURL, c.token)

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var payload struct {
		OK     bool `json:"ok"`
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", err
	}
	if !payload.OK || payload.Result.Username == "" {
		return "", "", fmt.Errorf("telegram getMe returned no username")
	}

	return "https://t.me/" + payload.Result.Username, payload.Result.Username, nil
}
