package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/singsync/internal/formatter"
	"github.com/desertthunder/singsync/internal/lyrics"
	"github.com/desertthunder/singsync/internal/models"
	"github.com/desertthunder/singsync/internal/shared"
	"github.com/desertthunder/singsync/internal/tasks"
)

const (
	defaultMaxUpload = 50 << 20
	maxLyricsBody    = 1 << 20
	multipartMemory  = 8 << 20
)

// Catalog is the read side the handlers need. Implemented by [tasks.Catalog].
type Catalog interface {
	Songs(ctx context.Context, page, limit int) ([]*models.Song, error)
	Search(ctx context.Context, query string) ([]*models.Song, error)
	Song(ctx context.Context, id string) (*models.Song, error)
}

// API serves the song catalog over HTTP.
type API struct {
	catalog   Catalog
	publish   tasks.PublishFunc
	ping      func(context.Context) error
	maxUpload int64
	logger    *log.Logger
}

// APIOpts contains the collaborators for an [API].
type APIOpts struct {
	Catalog     Catalog
	Publish     tasks.PublishFunc           // nil disables POST /songs
	Ping        func(context.Context) error // health check, e.g. (*sql.DB).PingContext
	MaxUploadMB int64
	Logger      *log.Logger
}

// NewAPI creates the catalog API.
func NewAPI(opts APIOpts) *API {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	maxUpload := opts.MaxUploadMB << 20
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &API{
		catalog:   opts.Catalog,
		publish:   opts.Publish,
		ping:      opts.Ping,
		maxUpload: maxUpload,
		logger:    opts.Logger,
	}
}

// Register adds the API's routes to r. upload wraps the publish route only.
func (a *API) Register(r Router, upload ...Middleware) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/songs", http.HandlerFunc(a.listSongs))
	r.Handle(http.MethodGet, "/songs/search", http.HandlerFunc(a.searchSongs))
	r.Handle(http.MethodGet, "/songs/{id}", http.HandlerFunc(a.getSong))
	r.Handle(http.MethodGet, "/songs/{id}/lyrics.lrc", http.HandlerFunc(a.songLRC))
	r.Handle(http.MethodPost, "/songs", http.HandlerFunc(a.publishSong), upload...)
	r.Handle(http.MethodPost, "/lyrics/parse", http.HandlerFunc(a.parseLyrics))
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		if err := a.ping(r.Context()); err != nil {
			a.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type songsResponse struct {
	Page  int            `json:"page,omitempty"`
	Limit int            `json:"limit,omitempty"`
	Query string         `json:"query,omitempty"`
	Songs []*models.Song `json:"songs"`
}

func (a *API) listSongs(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		a.fail(w, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		a.fail(w, err)
		return
	}

	songs, err := a.catalog.Songs(r.Context(), page, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Page: max(page, 1), Limit: limit, Songs: songs})
}

func (a *API) searchSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	songs, err := a.catalog.Search(r.Context(), q)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songsResponse{Query: q, Songs: songs})
}

func (a *API) getSong(w http.ResponseWriter, r *http.Request) {
	song, err := a.catalog.Song(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (a *API) songLRC(w http.ResponseWriter, r *http.Request) {
	song, err := a.catalog.Song(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", song.ID()+".lrc"))
	io.WriteString(w, formatter.LyricsToLRC(song))
}

// publishSong accepts a multipart form with title, artist, lyrics (JSON track) or lrc (LRC text),
// an audio file and an optional cover.
func (a *API) publishSong(w http.ResponseWriter, r *http.Request) {
	if a.publish == nil {
		writeError(w, http.StatusNotImplemented, "publishing is disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		a.fail(w, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	upload, closeFiles, err := uploadFromForm(r)
	defer closeFiles()
	if err != nil {
		a.fail(w, err)
		return
	}

	song, err := a.publish(r.Context(), upload)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func uploadFromForm(r *http.Request) (tasks.SongUpload, func(), error) {
	var files []multipart.File
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}

	upload := tasks.SongUpload{
		Title:  r.FormValue("title"),
		Artist: r.FormValue("artist"),
	}

	switch raw, lrc := r.FormValue("lyrics"), r.FormValue("lrc"); {
	case raw != "":
		track, err := lyrics.Decode([]byte(raw))
		if err != nil {
			return upload, closeFiles, fmt.Errorf("%w: lyrics must be a JSON array of lines: %w", shared.ErrInvalidInput, err)
		}
		upload.Lyrics = track
	case lrc != "":
		upload.Lyrics = lyrics.ParseLRC(lrc)
		tags := lyrics.ParseLRCTags(lrc)
		if strings.TrimSpace(upload.Title) == "" {
			upload.Title = tags["ti"]
		}
		if strings.TrimSpace(upload.Artist) == "" {
			upload.Artist = tags["ar"]
		}
	}

	audio, header, err := r.FormFile("audio")
	if err != nil {
		return upload, closeFiles, fmt.Errorf("%w: audio file", shared.ErrMissingArgument)
	}
	files = append(files, audio)
	upload.Audio = tasks.File{Name: header.Filename, ContentType: header.Header.Get("Content-Type"), Body: audio}

	if cover, header, err := r.FormFile("cover"); err == nil {
		files = append(files, cover)
		upload.Cover = &tasks.File{Name: header.Filename, ContentType: header.Header.Get("Content-Type"), Body: cover}
	}

	return upload, closeFiles, nil
}

type parseResponse struct {
	Lyrics lyrics.Track      `json:"lyrics"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// parseLyrics converts an LRC body into the JSON lyric track.
func (a *API) parseLyrics(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLyricsBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "lyrics too large")
		return
	}

	text := string(body)
	writeJSON(w, http.StatusOK, parseResponse{Lyrics: lyrics.ParseLRC(text), Tags: lyrics.ParseLRCTags(text)})
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		a.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrSongNotFound), errors.Is(err, shared.ErrRecordingNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrObjectExists):
		return http.StatusConflict
	case errors.Is(err, shared.ErrStorageUpload), errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", shared.ErrInvalidArgument, name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
