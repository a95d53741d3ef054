package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation error")

const (
	signedURLTTL  = 5 * time.Minute
	maxCardPhotos = 6
)

type KeyStore interface {
	ListPhotoKeys(ctx context.Context, userID int64, limit int) ([]string, error)
}

type Signer interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	URLTTL    time.Duration
	MaxPhotos int
}

// Service turns stored photo keys into short-lived URLs for discovery cards.
type Service struct {
	keys   KeyStore
	signer Signer
	cfg    Config
}

func NewService(keys KeyStore, signer Signer, cfg Config) *Service {
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = signedURLTTL
	}
	if cfg.MaxPhotos <= 0 {
		cfg.MaxPhotos = maxCardPhotos
	}
	return &Service{keys: keys, signer: signer, cfg: cfg}
}

// PhotoURLs skips keys that fail to sign; a card without photos is still a valid card.
func (s *Service) PhotoURLs(ctx context.Context, userID int64) ([]string, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.keys == nil || s.signer == nil {
		return []string{}, nil
	}

	keys, err := s.keys.ListPhotoKeys(ctx, userID, s.cfg.MaxPhotos)
	if err != nil {
		return nil, fmt.Errorf("list photo keys: %w", err)
	}

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		signed, err := s.signer.PresignGet(ctx, key, s.cfg.URLTTL)
		if err != nil {
			continue
		}
		urls = append(urls, signed)
	}
	return urls, nil
}
