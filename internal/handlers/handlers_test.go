package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/middleware"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.Silent)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	services.InitSystemLogger(db)
	t.Cleanup(func() { services.InitSystemLogger(nil) })
	return db
}

// asUser stands in for AuthRequired in handler tests.
func asUser(id uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename)}
	if contentType != "" {
		h["Content-Type"] = []string{contentType}
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return resp
}

func importRouter(t *testing.T, cfg config.ImportConfig) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	db.Create(&models.User{ID: 1, Name: "Ann Mentor", Email: "a@x.edu", Role: models.RoleMentor, IsActive: true})
	db.Create(&models.User{ID: 2, Name: "M1", Email: "m1@x.edu", Role: models.RoleMentee, IsActive: true})

	svc := services.NewImportService(db, cfg, nil, services.NewImportEventHub())
	h := NewImportHandler(svc, cfg)

	r := gin.New()
	api := r.Group("/api", asUser(50, models.RoleCoordinator))
	api.POST("/imports", h.Import)
	api.POST("/imports/preview", h.Preview)
	api.GET("/imports/template", h.Template)
	api.GET("/imports", h.List)
	api.GET("/imports/:id", h.GetByID)
	return r, db
}

func postFile(r *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)
	return w
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
