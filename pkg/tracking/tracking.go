package tracking

import (
	"net/http"

	"github.com/matst80/slask-gallery/pkg/types"
)

type Tracking interface {
	TrackSession(sessionId string, r *http.Request)
	TrackSearch(sessionId string, sel types.Selection, hits int, page int, r *http.Request)
}
