package http

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sjohnston82/tome-tracker1/internal/importers"
	"github.com/sjohnston82/tome-tracker1/internal/services"
)

// MaxUploadSize bounds CSV uploads.
const MaxUploadSize = 10 << 20

// ImportController handles spreadsheet import endpoints. Both endpoints take
// either a JSON body or a multipart form with a "file" field.
type ImportController struct {
	importer Importer
}

func NewImportController(importer Importer) *ImportController {
	return &ImportController{importer: importer}
}

type importRequest struct {
	CSV     *string             `json:"csv"`
	Rows    []map[string]string `json:"rows"`
	Mapping *importers.Mapping  `json:"mapping"`
	Format  string              `json:"format"`
}

// Preview handles POST /api/import/preview
func (ic *ImportController) Preview(c *gin.Context) {
	csvData, _, ok := ic.readUpload(c)
	if !ok {
		return
	}
	if csvData == nil {
		respondBadRequest(c, "csv or file is required")
		return
	}
	defer csvData.Close()

	preview, err := ic.importer.Preview(csvData)
	if err != nil {
		respondServiceError(c, err, "import", "import preview")
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": preview})
}

// Execute handles POST /api/import/execute
func (ic *ImportController) Execute(c *gin.Context) {
	csvData, req, ok := ic.readUpload(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := GetUserID(c)

	var (
		result *importers.Result
		err    error
	)
	if csvData != nil {
		defer csvData.Close()
		result, err = ic.importer.ExecuteCSV(ctx, userID, csvData, req.Mapping, req.Format)
	} else {
		result, err = ic.importer.Execute(ctx, userID, services.ExecuteRequest{
			Rows:    req.Rows,
			Mapping: req.Mapping,
			Format:  req.Format,
		})
	}
	if err != nil {
		respondServiceError(c, err, "import", "import execute")
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// readUpload reads the request in either shape. The returned reader is nil
// when the request carried parsed rows instead of CSV text.
func (ic *ImportController) readUpload(c *gin.Context) (io.ReadCloser, importRequest, bool) {
	var req importRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondBadRequest(c, "file is required")
			return nil, req, false
		}
		if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") {
			respondBadRequest(c, "only .csv files are supported")
			return nil, req, false
		}

		if raw := c.PostForm("mapping"); raw != "" {
			var mapping importers.Mapping
			if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
				respondBadRequest(c, "invalid mapping: "+err.Error())
				return nil, req, false
			}
			req.Mapping = &mapping
		}
		req.Format = c.PostForm("format")

		file, err := fileHeader.Open()
		if err != nil {
			respondInternalError(c, err, "open upload")
			return nil, req, false
		}
		return file, req, true
	}

	if !bindJSON(c, &req) {
		return nil, req, false
	}
	if req.CSV != nil {
		return io.NopCloser(strings.NewReader(*req.CSV)), req, true
	}
	return nil, req, true
}
