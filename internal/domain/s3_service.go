package domain

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type s3Service struct {
	client ports.S3Client
}

func NewS3Service(client ports.S3Client) ports.AudioArchive {
	return &s3Service{client: client}
}

// ObjectKey — путь в бакете
func (s *s3Service) ObjectKey(conversationID, interactionID string) string {
	return path.Join(conversationID, interactionID+".mp3")
}

func (s *s3Service) SaveReplyAudio(ctx context.Context, conversationID, interactionID string, audio []byte) (string, error) {
	if conversationID == "" || interactionID == "" {
		return "", fmt.Errorf("conversationID and interactionID required")
	}

	key := s.ObjectKey(conversationID, interactionID)
	return s.client.PutObject(ctx, key, bytes.NewReader(audio), int64(len(audio)), "audio/mpeg")
}
