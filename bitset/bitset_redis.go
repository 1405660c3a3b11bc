package bitset

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/caiocdcs/probz"
)

// BitSetRedis is a bitset stored as a redis string value, manipulated
// through the redis bit operations. The process-wide redis client must
// be configured through probz.MakeRedisClient before use.
type BitSetRedis struct {
	size uint
	key  string
}

// NewBitSetRedis creates a redis bitset of size bits under a fresh
// uuid key, all zero.
func NewBitSetRedis(size uint) *BitSetRedis {
	bytes := make([]byte, (size+7)/8)
	key := uuid.New().String()
	_ = probz.GetRedisClient().Set(context.Background(), key, string(bytes), 0).Err()
	return &BitSetRedis{size, key}
}

// FromRedisKey wraps an existing redis bitset value of size bits.
func FromRedisKey(key string, size uint) *BitSetRedis {
	return &BitSetRedis{size, key}
}

func (b *BitSetRedis) Size() uint {
	return b.size
}

// Key returns the redis key holding the bitset value.
func (b *BitSetRedis) Key() string {
	return b.key
}

func (b *BitSetRedis) checkRange(index uint) error {
	if index >= b.size {
		return fmt.Errorf("probz: index %d out of bitset range %d: %w", index, b.size, probz.ErrIndexOutOfRange)
	}
	return nil
}

func (b *BitSetRedis) Has(index uint) (bool, error) {
	if err := b.checkRange(index); err != nil {
		return false, err
	}
	val, err := probz.GetRedisClient().GetBit(context.Background(), b.key, int64(index)).Result()
	if err != nil {
		return false, err
	}
	return val != 0, nil
}

func (b *BitSetRedis) HasMulti(indexes []uint) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("probz: at least 1 index is required: %w", probz.ErrInvalidParameters)
	}
	for _, index := range indexes {
		if err := b.checkRange(index); err != nil {
			return nil, err
		}
	}
	pipe := probz.GetRedisClient().Pipeline()
	ctx := context.Background()
	values := make([]*redis.IntCmd, len(indexes))
	for i := range indexes {
		values[i] = pipe.GetBit(ctx, b.key, int64(indexes[i]))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	result := make([]bool, len(values))
	for i := range values {
		result[i] = values[i].Val() != 0
	}
	return result, nil
}

func (b *BitSetRedis) Insert(index uint) (bool, error) {
	return b.writeBit(index, 1)
}

func (b *BitSetRedis) Remove(index uint) (bool, error) {
	return b.writeBit(index, 0)
}

func (b *BitSetRedis) writeBit(index uint, value int) (bool, error) {
	if err := b.checkRange(index); err != nil {
		return false, err
	}
	err := probz.GetRedisClient().SetBit(context.Background(), b.key, int64(index), value).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *BitSetRedis) Toggle(index uint) (bool, error) {
	ok, err := b.Has(index)
	if err != nil {
		return false, err
	}
	if ok {
		return b.writeBit(index, 0)
	}
	return b.writeBit(index, 1)
}

func (b *BitSetRedis) InsertMulti(indexes []uint) (bool, error) {
	if len(indexes) == 0 {
		return false, fmt.Errorf("probz: at least 1 index is required: %w", probz.ErrInvalidParameters)
	}
	for _, index := range indexes {
		if err := b.checkRange(index); err != nil {
			return false, err
		}
	}
	pipe := probz.GetRedisClient().Pipeline()
	ctx := context.Background()
	for i := range indexes {
		pipe.SetBit(ctx, b.key, int64(indexes[i]), 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (b *BitSetRedis) BitCount() (uint, error) {
	count, err := probz.GetRedisClient().BitCount(context.Background(), b.key, nil).Result()
	if err != nil {
		return 0, err
	}
	return uint(count), nil
}

func (b *BitSetRedis) Equals(other IBitSet) (bool, error) {
	second, ok := other.(*BitSetRedis)
	if !ok {
		return false, fmt.Errorf("probz: can't compare bitsets of different backings: %w", probz.ErrInvalidParameters)
	}
	ctx := context.Background()
	aVal, err := probz.GetRedisClient().Get(ctx, b.key).Result()
	if err != nil {
		return false, err
	}
	bVal, err := probz.GetRedisClient().Get(ctx, second.key).Result()
	if err != nil {
		return false, err
	}
	return aVal == bVal, nil
}
