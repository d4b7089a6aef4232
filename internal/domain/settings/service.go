package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SoundSettings returns the stored announcement settings merged over the
// defaults, so partial writes and newly added fields stay well-formed. A
// stored value that fails to parse is ignored rather than surfaced.
func (s *Service) SoundSettings(ctx context.Context) (SoundSettings, error) {
	merged := DefaultSoundSettings()
	raw, err := s.repo.Get(ctx, KeySoundSettings)
	if errors.Is(err, ErrNotFound) {
		return merged, nil
	}
	if err != nil {
		return merged, fmt.Errorf("load sound settings: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		s.logger.Warn().Err(err).Msg("stored sound settings are not valid JSON, using defaults")
		return DefaultSoundSettings(), nil
	}
	return merged, nil
}

// SaveSoundSettings merges the supplied fields over the defaults and stores
// the complete document.
func (s *Service) SaveSoundSettings(ctx context.Context, raw json.RawMessage) (SoundSettings, error) {
	merged := DefaultSoundSettings()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &merged); err != nil {
			return SoundSettings{}, fmt.Errorf("parse sound settings: %w", err)
		}
	}
	value, err := json.Marshal(merged)
	if err != nil {
		return SoundSettings{}, fmt.Errorf("encode sound settings: %w", err)
	}
	if err := s.repo.Set(ctx, KeySoundSettings, string(value)); err != nil {
		return SoundSettings{}, fmt.Errorf("save sound settings: %w", err)
	}
	return merged, nil
}

// Theme returns the active display theme. Anything unknown, missing, or
// unreadable falls back to the default so the display always renders.
func (s *Service) Theme(ctx context.Context) string {
	name, err := s.repo.Get(ctx, KeyTheme)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Msg("theme lookup failed, using default")
		}
		return DefaultTheme
	}
	if !ValidTheme(name) {
		return DefaultTheme
	}
	return name
}

// SetTheme stores the active theme; the name must be a known preset.
func (s *Service) SetTheme(ctx context.Context, name string) error {
	if !ValidTheme(name) {
		return ErrInvalidTheme
	}
	if err := s.repo.Set(ctx, KeyTheme, name); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
