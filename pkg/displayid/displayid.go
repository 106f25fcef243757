package displayid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New генерирует человекочитаемый идентификатор вида "BKG-1A2B3C4D"
// Префикс обозначает тип сущности (SLOT, BLKOUT, BKG, REXC)
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), strings.ToUpper(raw[:8]))
}
