package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
)

// multipartOverhead is extra body allowance for multipart boundaries and
// part headers on top of the file size limit.
const multipartOverhead = 64 << 10

// readImportPayload returns the import text from either a multipart form
// field named "file" or, for any other content type, the raw request body.
// Payloads over maxSize fail with errFileTooLarge. A form without a "file"
// part fails with errNoFile; an empty payload is a valid, empty import.
func readImportPayload(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, error) {
	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		raw []byte
		err error
	)
	if mediaType == "multipart/form-data" {
		body := http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
		raw, err = readFilePart(multipart.NewReader(body, params["boundary"]), maxSize)
	} else {
		raw, err = readLimited(http.MaxBytesReader(w, r.Body, maxSize+1), maxSize)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// readFilePart scans the form for the "file" part and reads it.
func readFilePart(mr *multipart.Reader, maxSize int64) ([]byte, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, bodyError(err)
		}

		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		raw, err := readLimited(part, maxSize)
		_ = part.Close()
		return raw, err
	}
}

// readLimited reads at most maxSize bytes from rd.
func readLimited(rd io.Reader, maxSize int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(rd, maxSize+1))
	if err != nil {
		return nil, bodyError(err)
	}
	if int64(len(raw)) > maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize)
	}
	return raw, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxErr.Limit)
	}
	return fmt.Errorf("%w: %w", errNoFile, err)
}
