// Package resource decides what a request gets back: a file from the
// document root, a JSON echo of a posted form, or an error status.
package resource

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Brownie44l1/docserver/internal/request"
	"github.com/Brownie44l1/docserver/internal/response"
)

const (
	jsonContentType = "application/json"
	jsonEncoding    = "utf-8"
)

// Result is the outcome of resolving one request
type Result struct {
	response.Content
	Status    response.StatusCode
	KeepAlive bool
}

// Resolver maps requests to results. It holds no per-request state and is
// safe for concurrent use.
type Resolver struct {
	cfg         Config
	types       TypeResolver
	credentials []byte
	now         func() time.Time
}

// New creates a resolver. A nil TypeResolver means ExtensionTypes.
func New(cfg Config, types TypeResolver) *Resolver {
	if types == nil {
		types = ExtensionTypes{}
	}
	if !strings.HasSuffix(cfg.PrivatePrefix, "/") {
		cfg.PrivatePrefix += "/"
	}
	return &Resolver{
		cfg:         cfg,
		types:       types,
		credentials: basicCredentials(cfg.Username, cfg.Password),
		now:         time.Now,
	}
}

// Resolve handles GET, HEAD and POST; every other method gets 501.
func (r *Resolver) Resolve(req *request.Request) *Result {
	var res *Result
	switch req.Method {
	case request.MethodGet, request.MethodHead:
		res = r.serveFile(req)
	case request.MethodPost:
		res = r.echoForm(req)
	default:
		res = status(response.StatusNotImplemented)
	}

	res.KeepAlive = req.KeepAlive
	return res
}

func (r *Resolver) serveFile(req *request.Request) *Result {
	target := cleanTarget(req.Path)

	if r.isPrivate(target) && !r.authorized(req) {
		return status(response.StatusUnauthorized)
	}

	if target == "/" {
		target = r.cfg.DefaultDocument
	}

	file := r.filePath(target)
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		target = path.Join(target, r.cfg.DefaultDocument)
		file = r.filePath(target)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return status(response.StatusNotFound)
		}
		return status(response.StatusInternalServerError)
	}

	mimeType, encoding := r.types.Resolve(target)

	code := response.StatusOK
	if req.IsHead() {
		code = response.StatusHeadOK
	}

	return &Result{
		Content: response.Content{
			Body:     data,
			Type:     mimeType,
			Encoding: encoding,
		},
		Status: code,
	}
}

func (r *Resolver) echoForm(req *request.Request) *Result {
	if req.Header("Content-Type") != FormContentType {
		return status(response.StatusUnsupportedMediaType)
	}

	form, err := parseForm(req.Body)
	if err != nil {
		return status(response.StatusBadRequest)
	}

	body, err := encodeForm(form)
	if err != nil {
		return status(response.StatusInternalServerError)
	}

	return &Result{
		Content: response.Content{
			Body:     body,
			Type:     jsonContentType,
			Encoding: jsonEncoding,
		},
		Status: response.StatusCreated,
	}
}

// isPrivate treats the prefix without its trailing slash as private too
func (r *Resolver) isPrivate(target string) bool {
	return strings.HasPrefix(target+"/", r.cfg.PrivatePrefix)
}

// filePath places a cleaned target under the document root
func (r *Resolver) filePath(target string) string {
	return filepath.Join(r.cfg.DocumentRoot, filepath.FromSlash(target))
}

// cleanTarget drops query and fragment and resolves dot segments so the
// result can never climb above "/".
func cleanTarget(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i != -1 {
		raw = raw[:i]
	}
	return path.Clean("/" + raw)
}

func status(code response.StatusCode) *Result {
	return &Result{Status: code}
}
