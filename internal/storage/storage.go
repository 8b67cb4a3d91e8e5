// Package storage uploads published audio and cover art and hands back public URLs.
//
// Two backends implement [Store]: [LocalStore] writes under a directory served by the HTTP
// server, [HostedStore] posts to the hosted backend's object storage API. Neither overwrites
// an existing object.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// Kind labels what an object holds; it ends up in the object key.
type Kind string

const (
	KindAudio Kind = "audio"
	KindCover Kind = "cover"
	KindTake  Kind = "take"
)

// Default extensions and content types per kind, used when the upload carries none.
var defaults = map[Kind]struct{ ext, contentType string }{
	KindAudio: {"mp3", "audio/mpeg"},
	KindCover: {"jpg", "image/jpeg"},
	KindTake:  {"m4a", "audio/mp4"},
}

// Object describes an upload.
type Object struct {
	ContentType  string
	CacheControl string
	Size         int64
}

// Store persists objects under a key and resolves their public URLs.
type Store interface {
	// Put writes r under key. It fails with [shared.ErrObjectExists] if key is taken.
	Put(ctx context.Context, key string, r io.Reader, obj Object) error
	// PublicURL returns the URL clients use to fetch key.
	PublicURL(key string) string
}

// ObjectKey names an upload "<unix millis>_<kind>.<ext>".
//
// The extension comes from filename and falls back to the kind's default when filename has none.
func ObjectKey(now time.Time, kind Kind, filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" {
		ext = defaults[kind].ext
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%d_%s.%s", now.UnixMilli(), kind, ext)
}

// ContentType picks the upload's content type: the declared one if set, else one guessed from
// the filename's extension, else the kind's default.
func ContentType(kind Kind, filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct := mime.TypeByExtension(path.Ext(filename)); ct != "" {
		return ct
	}
	if d, ok := defaults[kind]; ok {
		return d.contentType
	}
	return "application/octet-stream"
}

// Upload is a convenience wrapper that keys, stores and resolves an object in one call.
func Upload(ctx context.Context, s Store, now time.Time, kind Kind, filename, declaredType, cacheControl string, r io.Reader) (string, error) {
	key := ObjectKey(now, kind, filename)
	obj := Object{ContentType: ContentType(kind, filename, declaredType), CacheControl: cacheControl}
	if err := s.Put(ctx, key, r, obj); err != nil {
		return "", err
	}
	return s.PublicURL(key), nil
}
