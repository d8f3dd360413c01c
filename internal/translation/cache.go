package translation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

// CachedTranslator кэширует ответы переводчика; сбой кэша не ломает перевод
type CachedTranslator struct {
	next  Translator
	cache ports.Cache
	ttl   time.Duration
}

func NewCachedTranslator(next Translator, cache ports.Cache, ttl time.Duration) *CachedTranslator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedTranslator{next: next, cache: cache, ttl: ttl}
}

func cacheKey(kind, text, sourceLang, targetLang string) string {
	return fmt.Sprintf("%s:%s:%s:%016x", kind, sourceLang, targetLang, xxh3.HashString(text))
}

func (c *CachedTranslator) TranslateSegments(ctx context.Context, text, sourceLang, targetLang string) (*ports.TranslatedText, error) {
	key := cacheKey("seg", text, sourceLang, targetLang)

	var hit ports.TranslatedText
	if c.load(ctx, key, &hit) {
		return &hit, nil
	}

	out, err := c.next.TranslateSegments(ctx, text, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *CachedTranslator) TranslateWord(ctx context.Context, word, sourceLang, targetLang string) (*ports.WordTranslation, error) {
	key := cacheKey("word", word, sourceLang, targetLang)

	var hit ports.WordTranslation
	if c.load(ctx, key, &hit) {
		return &hit, nil
	}

	out, err := c.next.TranslateWord(ctx, word, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, out)
	return out, nil
}

func (c *CachedTranslator) load(ctx context.Context, key string, v any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			log.Printf("[translate] cache get %s: %v", key, err)
		}
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

func (c *CachedTranslator) store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(b), c.ttl); err != nil {
		log.Printf("[translate] cache set %s: %v", key, err)
	}
}
