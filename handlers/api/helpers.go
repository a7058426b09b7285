package api

import (
	"errors"

	"phishlab/storage"
	"phishlab/utils"
)

// StorageError maps store sentinel errors onto AppErrors so the error
// handler can pick the right status.
func StorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrInvalidName):
		return utils.BadRequestError("Invalid campaign name", err)
	case errors.Is(err, storage.ErrInvalidUpload):
		return utils.BadRequestError("Only .html files are accepted", err)
	case errors.Is(err, storage.ErrMissingSource):
		return utils.BadRequestError("Select a template or upload a file", err)
	case errors.Is(err, storage.ErrTemplateNotFound):
		return utils.BadRequestError("Template not found", err)
	case errors.Is(err, storage.ErrNotFound):
		return utils.NotFoundError("Campaign not found", err)
	case errors.Is(err, storage.ErrUserExists):
		return utils.BadRequestError("User already exists", err)
	}

	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.InternalServerError("Storage error", err)
}
