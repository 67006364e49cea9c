package response

// StatusCode represents HTTP status codes
type StatusCode int

const (
	StatusOK                   StatusCode = 200
	StatusCreated              StatusCode = 201
	StatusBadRequest           StatusCode = 400
	StatusUnauthorized         StatusCode = 401
	StatusNotFound             StatusCode = 404
	StatusUnsupportedMediaType StatusCode = 415
	StatusInternalServerError  StatusCode = 500
	StatusNotImplemented       StatusCode = 501

	// StatusHeadOK marks a successful HEAD. It is written as 200 OK but is
	// never equal to StatusOK.
	StatusHeadOK StatusCode = -200
)

// statusText maps status codes to the text after "HTTP/1.1 "
var statusText = map[StatusCode]string{
	StatusOK:                   "200 OK",
	StatusHeadOK:               "200 OK",
	StatusCreated:              "201 Created",
	StatusBadRequest:           "400 Bad Request",
	StatusUnauthorized:         "401 Unauthorized Status",
	StatusNotFound:             "404 Not Found",
	StatusUnsupportedMediaType: "415 Unsupported Media Type",
	StatusInternalServerError:  "500 Internal Server Error",
	StatusNotImplemented:       "501 Not Implemented",
}

// defaultBody replaces the content of error responses
var defaultBody = map[StatusCode]string{
	StatusBadRequest:           "Request could not be parsed by the server",
	StatusNotFound:             "Requested resource not found",
	StatusUnsupportedMediaType: "Post content-type is not supported by the server",
	StatusNotImplemented:       "Request method is not supported by the server",
	StatusInternalServerError:  "An internal server error occurred while processing your request",
}

// Normalize maps codes the server has no status line for to 500.
func Normalize(code StatusCode) StatusCode {
	if _, ok := statusText[code]; ok {
		return code
	}
	return StatusInternalServerError
}

// StatusText returns the status line text, e.g. "404 Not Found"
func StatusText(code StatusCode) string {
	return statusText[Normalize(code)]
}

// DefaultBody returns the fixed body for an error status, if it has one
func DefaultBody(code StatusCode) (string, bool) {
	text, ok := defaultBody[Normalize(code)]
	return text, ok
}

// Code returns the numeric code that goes on the wire
func (code StatusCode) Code() int {
	code = Normalize(code)
	if code == StatusHeadOK {
		return int(StatusOK)
	}
	return int(code)
}

// IsClientError returns true for 4xx status codes
func (code StatusCode) IsClientError() bool {
	c := code.Code()
	return c >= 400 && c < 500
}

// IsServerError returns true for 5xx status codes
func (code StatusCode) IsServerError() bool {
	c := code.Code()
	return c >= 500 && c < 600
}
