package utils

import (
	"chartseed-service/internal/pkg/constvars"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return constvars.REQUEST_ID_PREFIX + uuid.NewString()
}

func GenerateMessageID() string {
	return uuid.NewString()
}
