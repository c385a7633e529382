package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

// DecodeCursor parses a pagination cursor; an empty string means the first page
func DecodeCursor(cursorStr string) (*domain.Cursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var insertDate int64
	if _, err := fmt.Sscanf(parts[0], "%d", &insertDate); err != nil {
		return nil, fmt.Errorf("invalid insert date in cursor: %w", err)
	}

	return &domain.Cursor{
		InsertDate: time.Unix(0, insertDate).UTC(),
		ID:         parts[1],
	}, nil
}

// EncodeCursor renders the position after the given row
func EncodeCursor(insertDate time.Time, id string) string {
	cs := fmt.Sprintf("%d|%s", insertDate.UnixNano(), id)
	return base64.URLEncoding.EncodeToString([]byte(cs))
}
