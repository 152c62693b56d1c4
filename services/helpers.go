package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/repositories"
)

// storeErr classifies a repository error. A missing record becomes a
// NotFoundError with msg; anything else is internal.
func storeErr(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(msg)
	}
	return apperrors.Internal(err)
}

// parseID parses a hex object id. Malformed ids are reported as not found so
// callers cannot tell them apart from unknown ones.
func parseID(hex, msg string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFound(msg)
	}
	return id, nil
}

// userObjectID returns the store id behind an identity.
func userObjectID(identity models.Identity) (primitive.ObjectID, error) {
	return parseID(identity.ID(), "User not found")
}

// runAsync is the default dispatcher for best-effort side work.
func runAsync(fn func()) { go fn() }
