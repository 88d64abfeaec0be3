package api

import (
	"net/http"

	"github.com/shaharia-lab/alertmail/internal/build"
)

// handleVersion godoc
// @Summary      Build information
// @Tags         meta
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    build.Version,
		"commit":     build.CommitSHA,
		"build_date": build.BuildDate,
	})
}
