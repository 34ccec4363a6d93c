package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"fulfillment/internal/apperr"
	"fulfillment/internal/models"

	"github.com/google/uuid"
)

// KV stands in for Redis: carts, locks, the order email cache and dedup keys.
type KV struct {
	mu     sync.Mutex
	now    func() time.Time
	carts  map[string]map[int64]models.CartLine
	keys   map[string]entry
	emails map[int64]entry

	// Err, when set, is returned by every call.
	Err error
}

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

func NewKV() *KV {
	return &KV{
		now:    time.Now,
		carts:  make(map[string]map[int64]models.CartLine),
		keys:   make(map[string]entry),
		emails: make(map[int64]entry),
	}
}

func (kv *KV) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return kv.now().Add(ttl)
}

func (kv *KV) GetCart(_ context.Context, email string) ([]models.CartLine, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return nil, kv.Err
	}

	lines := make([]models.CartLine, 0, len(kv.carts[email]))
	for _, l := range kv.carts[email] {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (kv *KV) GetLine(_ context.Context, email string, productID int64) (*models.CartLine, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return nil, kv.Err
	}

	l, ok := kv.carts[email][productID]
	if !ok {
		return nil, apperr.Newf(apperr.CodeNotFound, "product %d is not in the cart", productID)
	}
	return &l, nil
}

func (kv *KV) PutLine(_ context.Context, email string, line models.CartLine) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return kv.Err
	}

	if kv.carts[email] == nil {
		kv.carts[email] = make(map[int64]models.CartLine)
	}
	kv.carts[email][line.ProductID] = line
	return nil
}

func (kv *KV) DeleteLine(_ context.Context, email string, productID int64) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return kv.Err
	}
	delete(kv.carts[email], productID)
	return nil
}

func (kv *KV) ClearCart(_ context.Context, email string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return kv.Err
	}
	delete(kv.carts, email)
	return nil
}

func (kv *KV) AcquireLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return "", false, kv.Err
	}

	if e, ok := kv.keys[key]; ok && e.live(kv.now()) {
		return "", false, nil
	}
	token := uuid.New().String()
	kv.keys[key] = entry{value: token, expiresAt: kv.expiry(ttl)}
	return token, true, nil
}

func (kv *KV) ReleaseLock(_ context.Context, key, token string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return kv.Err
	}
	if e, ok := kv.keys[key]; ok && e.value == token {
		delete(kv.keys, key)
	}
	return nil
}

func (kv *KV) RememberEmail(_ context.Context, orderID int64, email string, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return kv.Err
	}
	kv.emails[orderID] = entry{value: email, expiresAt: kv.expiry(ttl)}
	return nil
}

func (kv *KV) LookupEmail(_ context.Context, orderID int64) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return "", kv.Err
	}
	e, ok := kv.emails[orderID]
	if !ok || !e.live(kv.now()) {
		return "", nil
	}
	return e.value, nil
}

func (kv *KV) SetIdempotencyKey(_ context.Context, key string, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return kv.Err
	}
	kv.keys[key] = entry{value: "1", expiresAt: kv.expiry(ttl)}
	return nil
}

func (kv *KV) CheckIdempotencyKey(_ context.Context, key string) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.Err != nil {
		return false, kv.Err
	}
	e, ok := kv.keys[key]
	return ok && e.live(kv.now()), nil
}

// Locked reports whether key is held.
func (kv *KV) Locked(key string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	e, ok := kv.keys[key]
	return ok && e.live(kv.now())
}
