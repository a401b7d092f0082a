package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func captureSecurityLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	original := util.GetSecurityLoggerForTest()
	util.SetSecurityLoggerForTest(log.New(&buf, "[SECURITY] ", log.LstdFlags|log.Lmsgprefix))
	t.Cleanup(func() {
		if original != nil {
			util.SetSecurityLoggerForTest(original)
		}
	})
	return &buf
}

func newLoggedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	r.Use(DatabaseMiddleware(db))
	r.Use(EndpointCallLogger())
	return r
}

func TestEndpointCallLogger_BasicRequest(t *testing.T) {
	buf := captureSecurityLog(t)

	r := newLoggedRouter(t)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test?foo=bar", nil)
	req.RemoteAddr = "192.168.1.100:1234"
	req.Header.Set("User-Agent", "TestAgent/1.0")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Event=ENDPOINT_CALL") {
		t.Error("Expected log to contain Event=ENDPOINT_CALL")
	}
	if !strings.Contains(logOutput, "GET /test -> 200") {
		t.Error("Expected log to contain request method and status")
	}
	if !strings.Contains(logOutput, "192.168.1.100") {
		t.Error("Expected log to contain IP address")
	}
	if !strings.Contains(logOutput, "TestAgent/1.0") {
		t.Error("Expected log to contain User-Agent")
	}
}

func TestEndpointCallLogger_WithStaffContext(t *testing.T) {
	buf := captureSecurityLog(t)

	r := newLoggedRouter(t)
	r.GET("/test", func(c *gin.Context) {
		c.Set(StaffIDKey, uint(42))
		c.Set(RoleKey, "receptionist")
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.100:1234"
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "UserID=42") {
		t.Error("Expected log to contain UserID=42")
	}
}

func TestEndpointCallLogger_NoStaffContext(t *testing.T) {
	buf := captureSecurityLog(t)

	r := newLoggedRouter(t)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Event=ENDPOINT_CALL") {
		t.Error("Expected log to contain Event=ENDPOINT_CALL")
	}
	// StaffID should be 0 when request is anonymous
	if !strings.Contains(logOutput, "UserID=0") {
		t.Error("Expected log to contain UserID=0")
	}
}

func TestEndpointCallLogger_ErrorStatus(t *testing.T) {
	buf := captureSecurityLog(t)

	r := newLoggedRouter(t)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "GET /test -> 404") {
		t.Error("Expected log to contain status 404")
	}
}

func TestEndpointCallLogger_POSTRequest(t *testing.T) {
	buf := captureSecurityLog(t)

	r := newLoggedRouter(t)
	r.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"created": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"data":"test"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "POST /test -> 201") {
		t.Error("Expected log to contain POST method and status 201")
	}
}
