package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/types"
)

const tokenCookieName = "gallery-admin"

// CreateToken signs an admin token for machine clients.
func CreateToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"sub":  subject,
			"role": "admin",
			"exp":  time.Now().Add(ttl).Unix(),
		})
	return token.SignedString(secret)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (ws *WebServer) validToken(raw string) bool {
	if raw == "" {
		return false
	}
	if ws.ApiKey != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(ws.ApiKey)) == 1 {
		return true
	}
	if len(ws.JwtSecret) == 0 {
		return false
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ws.JwtSecret, nil
	})
	if err != nil || !token.Valid {
		return false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return ok && claims["role"] == "admin"
}

func (ws *WebServer) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ws.validToken(bearerToken(r)) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// photosChanged drops cached aggregates and tells the other replicas to do
// the same.
func (ws *WebServer) photosChanged(r *http.Request, change messaging.PhotoChange) {
	ws.Distribution.Invalidate(r.Context())
	if ws.Events == nil {
		return
	}
	if err := ws.Events.PublishPhotoChange(change); err != nil {
		log.Printf("failed to publish photo change: %v", err)
	}
}

type UpsertResponse struct {
	Ids []uuid.UUID `json:"ids"`
}

func (ws *WebServer) UpsertPhotos(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	photos := make([]types.Photo, 0)
	if err := jsoncompat.NewDecoder(r.Body).Decode(&photos); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return err
	}
	ids := make([]uuid.UUID, len(photos))
	for i := range photos {
		photos[i].Normalize()
		ids[i] = photos[i].Id
	}
	if err := ws.Photos.Upsert(r.Context(), photos...); err != nil {
		storeErrors.Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}
	photoWrites.WithLabelValues("upsert").Add(float64(len(photos)))
	ws.photosChanged(r, messaging.PhotoChange{Upserted: ids})

	genericHeaders(w, r, true)
	w.WriteHeader(http.StatusOK)
	return enc.Encode(UpsertResponse{Ids: ids})
}

func (ws *WebServer) DeletePhoto(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid photo id", http.StatusBadRequest)
		return err
	}
	err = ws.Photos.Delete(r.Context(), id)
	if errors.Is(err, types.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}
	if err != nil {
		storeErrors.Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}
	photoWrites.WithLabelValues("delete").Inc()
	ws.photosChanged(r, messaging.PhotoChange{Deleted: []uuid.UUID{id}})

	genericHeaders(w, r, false)
	w.WriteHeader(http.StatusOK)
	_, err = w.Write([]byte("ok"))
	return err
}

// HandlePhotoChange invalidates local aggregates for changes made on other
// replicas.
func (ws *WebServer) HandlePhotoChange(change messaging.PhotoChange) {
	ws.Distribution.Invalidate(context.Background())
}

func (ws *WebServer) AdminHandler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /photos", ws.AuthMiddleware(common.JsonHandler(nil, ws.UpsertPhotos)))
	mux.HandleFunc("DELETE /photo/{id}", ws.AuthMiddleware(common.JsonHandler(nil, ws.DeletePhoto)))
	return mux
}
