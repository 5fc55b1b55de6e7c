package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/vulniq/vulniq-api/internal/response"
)

// decompressMiddleware handles decompression of request bodies based on the
// Content-Encoding header. Supports zstd; requests without the header pass
// through untouched.
func decompressMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := r.Header.Get("Content-Encoding")

			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			if strings.EqualFold(encoding, "zstd") {
				decoder, err := zstd.NewReader(r.Body)
				if err != nil {
					response.BadRequest(w, "Failed to create zstd decoder", response.RequestID(r.Context()))
					return
				}
				defer decoder.Close()

				// Downstream handlers see the uncompressed stream and must
				// not trust Content-Length anymore.
				r.Body = io.NopCloser(decoder)
				r.Header.Del("Content-Encoding")
				r.Header.Del("Content-Length")
				r.ContentLength = -1

				next.ServeHTTP(w, r)
				return
			}

			response.Error(w, "Unsupported Content-Encoding: "+encoding, &response.ErrorOptions{
				Status:    http.StatusUnsupportedMediaType,
				Code:      response.CodeBadRequest,
				RequestID: response.RequestID(r.Context()),
			})
		})
	}
}
