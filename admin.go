// admin.go - password-gated editor routes plus privacy-conscious visitor metrics
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// resetConfirmPhrase must be echoed back by the client before a reset runs.
// Reset is irreversible, so a bare POST is not enough.
const resetConfirmPhrase = "RESET"

var adminToken string
var hashingSalt string

// initAdminToken mints the per-boot cookie token. The cookie only proves the
// browser passed the unlock prompt this boot; the AuthGate state machine
// remains the source of truth for the edit session.
func initAdminToken() {
	adminToken = generateAdminToken()
	hashingSalt = generateAdminToken() // Use for IP hashing

	log.Printf("Admin editor available at: /admin/edit")
	if gin.Mode() == gin.DebugMode {
		log.Printf("Admin token (dev only): %s", adminToken)
	}
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate admin token:", err)
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address for privacy compliance (consistent per IP within one boot)
func hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + hashingSalt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// adminAuthMiddleware rejects requests without the unlock cookie.
func (a *app) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin authentication required"})
			return
		}
		c.Next()
	}
}

// setupAdminRoutes registers the unlock flow and the session edit API.
func setupAdminRoutes(a *app, r *gin.Engine) {
	// Clicking the admin icon: opens a fresh edit session and locks the gate.
	// Any previous session's unsaved edits are discarded.
	r.POST("/admin/edit", func(c *gin.Context) {
		a.gate.Trigger()
		c.JSON(http.StatusOK, gin.H{"state": a.gate.State().String()})
	})

	// Password prompt. Success unlocks the gate and sets the editor cookie;
	// failure re-prompts (the client clears its input on a 401).
	r.POST("/admin/unlock", func(c *gin.Context) {
		password := c.PostForm("password")

		if !a.gate.Verify(password) {
			log.Printf("Failed admin unlock attempt from %s", hashIP(c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
			return
		}

		c.SetCookie("admin_token", adminToken, 3600*24, "/admin", "", false, true)
		log.Printf("Admin unlock from %s", hashIP(c.ClientIP()))
		sess, err := a.gate.Session()
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "No open edit session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": a.gate.State().String(), "working": siteView(sess.Working())})
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.adminAuthMiddleware())

	// Current working copy, thumbnails resolved, for live preview.
	adminGroup.GET("/session", func(c *gin.Context) {
		sess, err := a.gate.Session()
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "No open edit session"})
			return
		}
		c.JSON(http.StatusOK, siteView(sess.Working()))
	})

	adminGroup.PUT("/session/bio", func(c *gin.Context) {
		a.withSession(c, func(sess *EditSession) error {
			return sess.SetBio(c.PostForm("value"))
		})
	})

	// External-URL path for the profile image; uploads go through
	// /session/upload instead.
	adminGroup.PUT("/session/profile-image", func(c *gin.Context) {
		a.withSession(c, func(sess *EditSession) error {
			return sess.SetProfileImage(a.ingestor.AcceptURL(c.PostForm("url")))
		})
	})

	adminGroup.PUT("/session/career/:index", func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
			return
		}
		a.withSession(c, func(sess *EditSession) error {
			return sess.UpdateCareerItem(index, c.PostForm("field"), c.PostForm("value"))
		})
	})

	adminGroup.POST("/session/works", func(c *gin.Context) {
		sess, err := a.gate.Session()
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "No open edit session"})
			return
		}
		item, err := sess.AddWork()
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"work": item})
	})

	adminGroup.PUT("/session/works/:index", func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
			return
		}
		a.withSession(c, func(sess *EditSession) error {
			return sess.UpdateWorkField(index, c.PostForm("field"), c.PostForm("value"))
		})
	})

	adminGroup.DELETE("/session/works/:index", func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid index"})
			return
		}
		a.withSession(c, func(sess *EditSession) error {
			return sess.RemoveWork(index)
		})
	})

	// Image upload. The file is ingested off this goroutine and applied only
	// if the session is still live when encoding finishes.
	adminGroup.POST("/session/upload", a.handleUpload)

	adminGroup.POST("/session/commit", func(c *gin.Context) {
		if err := a.gate.Commit(); err != nil {
			if errors.Is(err, ErrNotUnlocked) {
				c.JSON(http.StatusForbidden, gin.H{"error": "No open edit session"})
				return
			}
			log.Printf("Error committing edit session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save changes"})
			return
		}
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.JSON(http.StatusOK, gin.H{"state": a.gate.State().String()})
	})

	adminGroup.POST("/session/cancel", func(c *gin.Context) {
		a.gate.Cancel()
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.JSON(http.StatusOK, gin.H{"state": a.gate.State().String()})
	})

	// Factory reset: drops the snapshot and restores default content.
	adminGroup.POST("/reset", func(c *gin.Context) {
		if c.PostForm("confirm") != resetConfirmPhrase {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Reset requires confirm=%s", resetConfirmPhrase),
			})
			return
		}
		a.gate.Cancel()
		if err := a.store.Reset(); err != nil {
			log.Printf("Error resetting content: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset content"})
			return
		}
		log.Printf("Content reset to defaults by admin from %s", hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "Content reset to defaults"})
	})

	// Visitor metrics for the dashboard
	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.metrics.stats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}

// withSession runs a mutator against the live session and maps its errors to
// HTTP statuses.
func (a *app) withSession(c *gin.Context, fn func(*EditSession) error) {
	sess, err := a.gate.Session()
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "No open edit session"})
		return
	}
	if err := fn(sess); err != nil {
		switch {
		case errors.Is(err, ErrIndexOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrSessionClosed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"working": siteView(sess.Working())})
}

func (a *app) handleUpload(c *gin.Context) {
	sess, err := a.gate.Session()
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "No open edit session"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}

	var apply func(*EditSession, string) error
	switch target := c.PostForm("target"); target {
	case "profile":
		apply = func(s *EditSession, encoded string) error {
			return s.SetProfileImage(encoded)
		}
	case "work":
		index, convErr := strconv.Atoi(c.PostForm("index"))
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid work index"})
			return
		}
		apply = func(s *EditSession, encoded string) error {
			return s.UpdateWorkField(index, "img", encoded)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "target must be profile or work"})
		return
	}

	// Wait for the async ingest so the client learns the outcome; the
	// generation check still guards against the session changing under us.
	switch err := <-a.ingestor.IngestFile(sess.Token(), data, apply); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"working": siteView(sess.Working())})
	case errors.Is(err, ErrNotAnImage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Upload does not look like an image; previous value kept"})
	case errors.Is(err, ErrStaleIngest):
		c.JSON(http.StatusConflict, gin.H{"error": "Edit session changed during upload; result discarded"})
	case errors.Is(err, ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// ---- visitor metrics (shares the snapshot database) ----

type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"` // Hashed instead of raw IP for privacy
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
}

const visitorSchema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	path TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// visitorLog records page views with hashed IPs only.
type visitorLog struct {
	db *sql.DB
	wg sync.WaitGroup
}

func newVisitorLog(db *sql.DB) (*visitorLog, error) {
	if _, err := db.Exec(visitorSchema); err != nil {
		return nil, fmt.Errorf("create visitors table: %w", err)
	}
	return &visitorLog{db: db}, nil
}

// trackingMiddleware records visits to public pages. Static assets and admin
// traffic are skipped, and the Do Not Track header is honored.
func (v *visitorLog) trackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/favicon") {
			c.Next()
			return
		}

		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip := c.ClientIP()
		userAgent := c.GetHeader("User-Agent")
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			v.track(ip, userAgent, path)
		}()
		c.Next()
	}
}

// wait blocks until every queued visitor write has landed. Tests use it to
// observe the fire-and-forget inserts.
func (v *visitorLog) wait() { v.wg.Wait() }

func (v *visitorLog) track(ip, userAgent, path string) {
	_, err := v.db.Exec(`
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, hashIP(ip), userAgent, path, time.Now())
	if err != nil {
		log.Printf("Error recording visitor: %v", err)
	}
}

// cleanupOldData drops visitor rows older than 12 months.
func (v *visitorLog) cleanupOldData() {
	result, err := v.db.Exec(`
		DELETE FROM visitors
		WHERE timestamp < datetime('now', '-12 months')
	`)
	if err != nil {
		log.Printf("Error cleaning up old visitor data: %v", err)
		return
	}
	if rowsDeleted, _ := result.RowsAffected(); rowsDeleted > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than 12 months", rowsDeleted)
	}
}

func (v *visitorLog) stats() (*AdminStats, error) {
	stats := &AdminStats{}

	if err := v.db.QueryRow("SELECT COUNT(*) FROM visitors").Scan(&stats.TotalVisitors); err != nil {
		return nil, err
	}
	if err := v.db.QueryRow("SELECT COUNT(DISTINCT hashed_ip) FROM visitors").Scan(&stats.UniqueVisitors); err != nil {
		return nil, err
	}
	if err := v.db.QueryRow(`
		SELECT COUNT(*) FROM visitors
		WHERE DATE(timestamp) = DATE('now')
	`).Scan(&stats.VisitorsToday); err != nil {
		return nil, err
	}
	if err := v.db.QueryRow(`
		SELECT COUNT(*) FROM visitors
		WHERE timestamp >= datetime('now', '-7 days')
	`).Scan(&stats.VisitorsThisWeek); err != nil {
		return nil, err
	}

	rows, err := v.db.Query(`
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC
		LIMIT 50
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var visitor VisitorMetric
		if err := rows.Scan(&visitor.ID, &visitor.HashedIP, &visitor.UserAgent, &visitor.Path, &visitor.Timestamp); err != nil {
			continue
		}
		stats.RecentVisitors = append(stats.RecentVisitors, visitor)
	}

	return stats, nil
}
