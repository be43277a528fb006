package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"net/smtp"

	_ "github.com/joho/godotenv/autoload"
	_ "modernc.org/sqlite"

	"github.com/gin-gonic/gin"
)

// app wires the content store, the admin gate and the supporting services
// together. Handlers hang off it so nothing reaches for package globals.
type app struct {
	cfg      Config
	store    *ContentStore
	gate     *AuthGate
	ingestor *ImageIngestor
	metrics  *visitorLog
}

func newApp(cfg Config, db *sql.DB) (*app, error) {
	store, err := NewContentStore(db)
	if err != nil {
		return nil, fmt.Errorf("content store: %w", err)
	}
	metrics, err := newVisitorLog(db)
	if err != nil {
		return nil, fmt.Errorf("visitor log: %w", err)
	}

	gate := NewAuthGate(cfg.AdminPassword, store)
	return &app{
		cfg:      cfg,
		store:    store,
		gate:     gate,
		ingestor: NewImageIngestor(gate),
		metrics:  metrics,
	}, nil
}

func newRouter(a *app) *gin.Engine {
	r := gin.Default()

	r.Static("/static", "./static")
	r.Use(a.metrics.trackingMiddleware())

	// Public content API consumed by the front end
	r.GET("/api/site", a.handleSite)
	r.POST("/api/contact", a.handleContact)

	setupAdminRoutes(a, r)
	return r
}

func main() {
	cfg := loadConfig()

	db, err := sql.Open("sqlite", cfg.SnapshotDB)
	if err != nil {
		log.Fatal("Failed to open snapshot database:", err)
	}
	defer db.Close()

	a, err := newApp(cfg, db)
	if err != nil {
		log.Fatal("Failed to initialize:", err)
	}

	initAdminToken()
	go a.metrics.cleanupOldData()

	r := newRouter(a)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited:", err)
	}
}

// workView decorates a work item with its resolved display thumbnail.
type workView struct {
	WorkItem
	Thumb string `json:"thumb"`
}

func siteView(data SiteData) gin.H {
	works := make([]workView, len(data.Works))
	for i, w := range data.Works {
		works[i] = workView{WorkItem: w, Thumb: ResolveThumbnail(w)}
	}
	return gin.H{
		"profileImg": data.ProfileImg,
		"bio":        data.Bio,
		"career":     data.Career,
		"works":      works,
	}
}

// handleSite serves the committed content with thumbnails resolved.
func (a *app) handleSite(c *gin.Context) {
	c.JSON(http.StatusOK, siteView(a.store.Data()))
}

// handleContact relays the contact form over SMTP.
func (a *app) handleContact(c *gin.Context) {
	name := c.PostForm("fullName")
	email := c.PostForm("email")
	message := c.PostForm("message")

	if err := a.sendContactEmail(name, email, message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Thank you for your message! I'll get back to you soon.",
	})
}

func (a *app) sendContactEmail(name, email, message string) error {
	if a.cfg.SMTPUser == "" || a.cfg.SMTPPass == "" || a.cfg.ToEmail == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, email, message)

	msg := []byte("To: " + a.cfg.ToEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + a.cfg.SMTPUser + "\r\n" +
		"Reply-To: " + email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", a.cfg.SMTPUser, a.cfg.SMTPPass, a.cfg.SMTPHost)
	if err := smtp.SendMail(a.cfg.SMTPHost+":"+a.cfg.SMTPPort, auth, a.cfg.SMTPUser, []string{a.cfg.ToEmail}, msg); err != nil {
		log.Printf("Error sending contact email: %v", err)
		return err
	}

	log.Printf("Contact email sent from %s (%s)", name, email)
	return nil
}
