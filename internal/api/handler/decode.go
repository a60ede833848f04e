package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"taskboard/internal/common"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body must not exceed %d bytes", maxBodyBytes)
		}
		return err
	}
	return nil
}

func respondInvalidPayload(w http.ResponseWriter, err error) {
	common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
}
