package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/cyberguard/backend/internal/api/routes"
	"github.com/cyberguard/backend/internal/config"
	"github.com/cyberguard/backend/internal/database"
	"github.com/cyberguard/backend/internal/logger"
)

// sample is one demonstration request replayed through the pipeline.
type sample struct {
	path        string
	contentType string
	body        string
	userAgent   string
}

var samples = []sample{
	{"/api/attack/safe-request", "application/json", `{"data":"quarterly report","page":2}`, "Mozilla/5.0"},
	{"/api/attack/safe-request", "application/json", `{"search":"blue widgets"}`, "Mozilla/5.0"},
	{"/api/attack/sql-injection", "application/json", `{"username":"admin","password":"password123"}`, "Mozilla/5.0"},
	{"/api/attack/sql-injection", "application/json", `{"username":"' OR 1=1 --","password":"x"}`, "sqlmap/1.7"},
	{"/api/attack/sql-injection", "application/json", `{"username":"admin' UNION SELECT password FROM users","password":"x"}`, "sqlmap/1.7"},
	{"/api/attack/sql-injection", "application/x-www-form-urlencoded", "username=admin%27--&password=x", "curl/8.4"},
	{"/api/attack/xss", "application/json", `{"comment":"<script>alert(document.cookie)</script>"}`, "Mozilla/5.0"},
	{"/api/attack/xss", "application/json", `{"comment":"<img src=x onerror=alert(1)>"}`, "Mozilla/5.0"},
	{"/api/attack/xss", "application/json", `{"comment":"Great article, thanks!"}`, "Mozilla/5.0"},
	{"/api/attack/ransomware-trigger", "application/json", `{}`, "python-requests/2.31"},
}

func main() {
	rounds := flag.Int("rounds", 1, "number of times to replay the sample traffic")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(false, os.Stderr)

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().Fatalf("connect database: %v", err)
	}

	deps, err := routes.NewDependencies(db, cfg)
	if err != nil {
		logger.Log().Fatalf("build dependencies: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	routes.Register(router, deps, cfg)

	counts := replay(router, *rounds)

	fmt.Printf("✓ Replayed %d requests\n", *rounds*len(samples))
	for code, n := range counts {
		fmt.Printf("  %d %s: %d\n", code, http.StatusText(code), n)
	}
}

// replay sends every sample through handler rounds times and counts the
// response status codes.
func replay(handler http.Handler, rounds int) map[int]int {
	counts := map[int]int{}
	for r := 0; r < rounds; r++ {
		for _, s := range samples {
			req := httptest.NewRequest(http.MethodPost, s.path, bytes.NewBufferString(s.body))
			req.Header.Set("Content-Type", s.contentType)
			req.Header.Set("User-Agent", s.userAgent)
			req.RemoteAddr = fmt.Sprintf("203.0.113.%d:40000", 10+r%200)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			counts[w.Code]++
		}
	}
	return counts
}
