package server

import (
	"thoughtstream/internal/cache"
	"thoughtstream/internal/errkind"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CacheHandler exposes operator-facing semantic cache visibility, a
// supplement beyond the distilled ingest contract since an operator needs
// some way to see whether the cache is actually absorbing repeat thoughts
// for a given user.
type CacheHandler struct {
	cache *cache.Cache
}

func NewCacheHandler(c *cache.Cache) *CacheHandler {
	return &CacheHandler{cache: c}
}

func (h *CacheHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/internal/cache/:user_id/stats", h.Stats)
}

func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return errkind.NewPermanent(errkind.PermanentInvalidPayload, "user_id must be a uuid", nil)
	}

	count, err := h.cache.Stats(c.UserContext(), userID)
	if err != nil {
		return errkind.NewPermanent(errkind.PermanentInvariant, "failed to read cache stats", err)
	}

	return c.JSON(fiber.Map{"user_id": userID.String(), "entry_count": count})
}
