package util

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	cache "github.com/patrickmn/go-cache"
)

func TestInitGeoIPEmptyPathIsNoop(t *testing.T) {
	t.Setenv("GEOIP_DB_PATH", "")
	if err := InitGeoIP(""); err != nil {
		t.Errorf("expected no error with empty path, got %v", err)
	}
}

func TestInitGeoIPMissingDatabase(t *testing.T) {
	if err := InitGeoIP("/nonexistent/GeoLite2-City.mmdb"); err == nil {
		t.Error("expected error for missing database file")
	}
}

func TestValidateGeoIPMissingDatabase(t *testing.T) {
	if err := ValidateGeoIP("/nonexistent/GeoLite2-City.mmdb"); err == nil {
		t.Error("expected error for missing database file")
	}
}

func TestGetIPLocationLocalAndPrivateRanges(t *testing.T) {
	geoipDB = nil
	geoipCache = nil

	// Staff logging in from the clinic LAN or localhost never get a
	// geolocation attached to their session audit trail.
	for _, ip := range []string{
		"",
		"127.0.0.1",
		"::1",
		"10.0.0.15",
		"10.255.255.255",
		"192.168.1.20",
		"::",
		"::ffff",
	} {
		city, country := GetIPLocation(ip)
		if city != "" || country != "" {
			t.Errorf("expected empty location for %q, got %q/%q", ip, city, country)
		}
	}
}

func TestGetIPLocationWithoutDatabase(t *testing.T) {
	geoipDB = nil
	geoipCache = nil

	city, country := GetIPLocation("27.72.100.10")
	if city != "" || country != "" {
		t.Errorf("expected empty location without a database, got %q/%q", city, country)
	}
}

func TestGetIPLocationInvalidIP(t *testing.T) {
	geoipDB = nil
	geoipCache = nil

	city, country := GetIPLocation("not-an-ip")
	if city != "" || country != "" {
		t.Errorf("expected empty location for invalid IP, got %q/%q", city, country)
	}
}

func TestGetIPLocationServedFromCache(t *testing.T) {
	geoipDB = nil
	geoipCache = cache.New(time.Minute, time.Minute)
	defer func() { geoipCache = nil }()

	// A prior login from this address already resolved its location; the
	// cached entry must answer without touching the database.
	geoipCache.Set("27.72.100.10", []string{"Da Nang", "Vietnam"}, cache.DefaultExpiration)

	hitsBefore, _, _ := GetGeoIPCacheMetrics()
	city, country := GetIPLocation("27.72.100.10")
	if city != "Da Nang" || country != "Vietnam" {
		t.Errorf("expected cached Da Nang/Vietnam, got %q/%q", city, country)
	}

	hitsAfter, _, size := GetGeoIPCacheMetrics()
	if hitsAfter != hitsBefore+1 {
		t.Errorf("expected cache hits to grow from %d, got %d", hitsBefore, hitsAfter)
	}
	if size != 1 {
		t.Errorf("expected cache size 1, got %d", size)
	}
}

func TestGetGeoIPCacheMetricsWithoutCache(t *testing.T) {
	geoipCache = nil

	_, _, size := GetGeoIPCacheMetrics()
	if size != 0 {
		t.Errorf("expected size 0 without a cache, got %d", size)
	}
}

func TestDownloadGeoIPUnreachableHost(t *testing.T) {
	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "GeoLite2-City.mmdb")

	_, err := DownloadGeoIP(context.Background(), "http://geoip-mirror.invalid/GeoLite2-City.mmdb", destPath)
	if err == nil {
		t.Error("expected error for unreachable host")
	}
}

func TestDownloadGeoIPHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "GeoLite2-City.mmdb")

	_, err := DownloadGeoIP(context.Background(), server.URL, destPath)
	if err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestDownloadGeoIPWritesDatabase(t *testing.T) {
	payload := []byte("mmdb payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write(payload); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "GeoLite2-City.mmdb")

	resultPath, err := DownloadGeoIP(context.Background(), server.URL+"/GeoLite2-City.mmdb", destPath)
	if err != nil {
		t.Fatalf("expected download to succeed, got %v", err)
	}
	if resultPath != destPath {
		t.Errorf("expected result path %s, got %s", destPath, resultPath)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("expected file content %q, got %q", payload, data)
	}
}

func TestDownloadGeoIPDecompressesGzip(t *testing.T) {
	payload := []byte("mmdb payload")
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(payload); err != nil {
		t.Fatalf("failed to compress payload: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to finish gzip stream: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write(compressed.Bytes()); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "GeoLite2-City.mmdb")

	if _, err := DownloadGeoIP(context.Background(), server.URL+"/GeoLite2-City.mmdb.gz", destPath); err != nil {
		t.Fatalf("expected gzip download to succeed, got %v", err)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("expected decompressed content %q, got %q", payload, data)
	}
}

func TestDownloadGeoIPContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "GeoLite2-City.mmdb")

	if _, err := DownloadGeoIP(ctx, server.URL, destPath); err == nil {
		t.Error("expected error due to context cancellation")
	}
}

func TestCloseGeoIPWithoutDatabase(t *testing.T) {
	geoipDB = nil
	CloseGeoIP()
	if geoipDB != nil {
		t.Error("expected geoipDB to remain nil after CloseGeoIP")
	}
}
