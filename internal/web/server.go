package web

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/labelminer/labelminer/internal/model"
	"github.com/labelminer/labelminer/internal/store"
)

// Server exposes a read-only dashboard over the working dataset. The table
// is re-read on every request so a pipeline running alongside is always
// reflected.
type Server struct {
	tablePath string
	logger    *zap.Logger
	engine    *gin.Engine
}

// NewServer builds the dashboard over the table at tablePath.
func NewServer(tablePath string, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		tablePath: tablePath,
		logger:    logger,
		engine:    gin.New(),
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/api/stats", s.handleStats)
	s.engine.GET("/api/products", s.handleProducts)
	s.engine.GET("/api/download", s.handleDownload)
	return s
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info("dashboard listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

type tableStats struct {
	Rows      int `json:"rows"`
	Pending   int `json:"pending"`
	Enriched  int `json:"enriched"`
	Complete  int `json:"complete"`
	WithLabel int `json:"with_label"`
}

func (s *Server) load(c *gin.Context) (*store.Table, bool) {
	table, err := store.Load(s.tablePath)
	if err != nil {
		s.logger.Error("load table", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return table, true
}

func summarize(table *store.Table) tableStats {
	ts := tableStats{Rows: table.Len()}
	for _, r := range table.Records {
		if !r.Processed() {
			ts.Pending++
			continue
		}
		ts.Enriched++
		if r.Status == string(model.StatusComplete) {
			ts.Complete++
		}
		if r.LabelImageURL != "" {
			ts.WithLabel++
		}
	}
	return ts
}

func (s *Server) handleStats(c *gin.Context) {
	table, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summarize(table))
}

func (s *Server) handleProducts(c *gin.Context) {
	table, ok := s.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": table.Len(), "products": table.Records})
}

func (s *Server) handleDownload(c *gin.Context) {
	c.FileAttachment(s.tablePath, "products.csv")
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>labelminer</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
</style>
</head>
<body>
<h1>labelminer</h1>
<table>
<tr><th>Rows</th><td>{{.Rows}}</td></tr>
<tr><th>Pending</th><td>{{.Pending}}</td></tr>
<tr><th>Enriched</th><td>{{.Enriched}}</td></tr>
<tr><th>Complete</th><td>{{.Complete}}</td></tr>
<tr><th>With label image</th><td>{{.WithLabel}}</td></tr>
</table>
<p><a href="/api/products">products</a> &middot; <a href="/api/stats">stats</a> &middot; <a href="/api/download">download CSV</a></p>
</body>
</html>
`))

func (s *Server) handleIndex(c *gin.Context) {
	table, ok := s.load(c)
	if !ok {
		return
	}
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(c.Writer, summarize(table)); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}
