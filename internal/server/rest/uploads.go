package rest

import (
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/server/storage"
	"github.com/gin-gonic/gin"
)

// dirBacked is implemented by storage backends whose files can be served
// straight from disk.
type dirBacked interface {
	Dir() string
}

// registerUploads serves stored covers under /uploads. Disk-backed storage is
// served statically; a storage.Linker gets a temporary redirect.
func registerUploads(r gin.IRoutes, st storage.Storage) {
	prefix := "/" + common.UploadsPrefix

	switch s := st.(type) {
	case dirBacked:
		r.Static(prefix, s.Dir())
	case storage.Linker:
		r.GET(prefix+"/*ref", redirectToCover(s))
	}
}

func redirectToCover(l storage.Linker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := path.Join(common.UploadsPrefix, strings.TrimPrefix(c.Param("ref"), "/"))
		u, err := l.URL(c.Request.Context(), ref)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, u)
	}
}
