package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditgrid/auditgrid/internal/audit"
	"github.com/auditgrid/auditgrid/internal/schema"
)

// maxUploadBytes caps degree-audit uploads at 10MB.
const maxUploadBytes = 10 << 20

// uploadResponse is the audit result plus pointers to the snapshot files
// written for this upload.
type uploadResponse struct {
	schema.AuditResult
	SavedFiles *snapshotInfo `json:"saved_files,omitempty"`
}

type snapshotInfo struct {
	Directory string            `json:"directory"`
	Files     map[string]string `json:"files"`
}

// handleUpload accepts a multipart degree-audit export under the "html"
// field, parses it, persists a snapshot of the result, and returns the
// sections and metadata. A document the parser can make nothing of still
// answers 200 with zero sections and the failure recorded in metadata.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("html")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no HTML file uploaded")
		return
	}
	defer file.Close()

	if !isHTMLUpload(header.Filename, header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, "only HTML files are allowed")
		return
	}

	// Spool to the upload dir under a unique name, parse, then delete. The
	// on-disk copy exists only for the duration of the request.
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.log.Error("create upload dir", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmpPath := filepath.Join(s.cfg.UploadDir, "html-"+uuid.NewString()+filepath.Ext(header.Filename))
	tmp, err := os.Create(tmpPath)
	if err != nil {
		s.log.Error("create upload file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if _, err := tmp.ReadFrom(file); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		s.log.Error("write upload file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmp.Close()
	defer os.Remove(tmpPath)

	result := s.parseUploaded(tmpPath)

	resp := uploadResponse{AuditResult: result}
	if saved := s.writeSnapshots(result, header.Filename); saved != nil {
		resp.SavedFiles = saved
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseUploaded runs the audit parser over the spooled file. Failures come
// back as an empty result with the error recorded in metadata so the client
// always gets a well-formed response.
func (s *Server) parseUploaded(path string) schema.AuditResult {
	f, err := os.Open(path)
	if err != nil {
		s.log.Error("open uploaded file", zap.Error(err))
		return failedResult(err)
	}
	defer f.Close()

	result, err := audit.Parse(f)
	if err != nil {
		s.log.Warn("audit parse failed", zap.Error(err))
		return failedResult(err)
	}
	s.log.Info("audit parsed",
		zap.Int("sections", len(result.Sections)),
		zap.String("student", result.Metadata.StudentName),
	)
	return result
}

func failedResult(err error) schema.AuditResult {
	return schema.AuditResult{
		Sections: []schema.RequirementSection{},
		Metadata: schema.AuditMetadata{
			StudentName:    "Student",
			ParseTimestamp: time.Now().UTC(),
			Error:          err.Error(),
		},
	}
}

func isHTMLUpload(filename, contentType string) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return true
	}
	return strings.HasPrefix(contentType, "text/html")
}

// writeSnapshots replaces the previous upload's snapshot files with this
// one's: the complete result plus separate sections and metadata files.
// Snapshot failures are logged and ignored; they never fail the upload.
func (s *Server) writeSnapshots(result schema.AuditResult, originalName string) *snapshotInfo {
	dir := s.cfg.SnapshotDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Warn("create snapshot dir", zap.Error(err))
		return nil
	}

	// One snapshot set at a time: clear the previous upload's files.
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".json") {
				os.Remove(filepath.Join(dir, e.Name()))
			}
		}
	}

	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	stamp := time.Now().Unix()
	files := map[string]interface{}{
		fmt.Sprintf("%s_complete_%d.json", base, stamp): result,
		fmt.Sprintf("%s_sections_%d.json", base, stamp): result.Sections,
		fmt.Sprintf("%s_metadata_%d.json", base, stamp): result.Metadata,
	}

	info := &snapshotInfo{Directory: dir, Files: make(map[string]string, len(files))}
	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			s.log.Warn("marshal snapshot", zap.Error(err))
			return nil
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			s.log.Warn("write snapshot", zap.String("file", name), zap.Error(err))
			return nil
		}
	}
	for name := range files {
		switch {
		case strings.Contains(name, "_complete_"):
			info.Files["complete"] = name
		case strings.Contains(name, "_sections_"):
			info.Files["sections"] = name
		case strings.Contains(name, "_metadata_"):
			info.Files["metadata"] = name
		}
	}
	return info
}

type snapshotEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, _ *http.Request) {
	dir := s.cfg.SnapshotDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"files": []snapshotEntry{}, "directory": dir, "count": 0,
		})
		return
	}

	files := make([]snapshotEntry, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, snapshotEntry{Name: e.Name(), Size: fi.Size(), Modified: fi.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files, "directory": dir, "count": len(files),
	})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".json") {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	path := filepath.Join(s.cfg.SnapshotDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}
