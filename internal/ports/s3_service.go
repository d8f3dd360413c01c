package ports

import "context"

type AudioArchive interface {
	ObjectKey(conversationID, interactionID string) string
	SaveReplyAudio(ctx context.Context, conversationID, interactionID string, audio []byte) (string, error)
}
