package redisdb

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ftad-ncr/tapmonitor/core/override"
)

const (
	fieldSep    = "\x1f"
	casAttempts = 5
)

type overrideModel struct {
	Office      string    `json:"office"`
	Division    string    `json:"division"`
	Period      string    `json:"period"`
	TargetIndex int       `json:"target_index"`
	Status      string    `json:"status"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func field(k override.Key) string {
	return strings.Join([]string{k.Office, k.Division, k.Period, strconv.Itoa(k.TargetIndex)}, fieldSep)
}

// OverrideRepository keeps one JSON document per override key in the "<prefix>:overrides" hash.
type OverrideRepository struct {
	redis *redis.Client
	key   string
}

var _ override.Repository = (*OverrideRepository)(nil)

func NewOverrideRepository(client *redis.Client, prefix string) *OverrideRepository {
	return &OverrideRepository{redis: client, key: hashKey(prefix, "overrides")}
}

func (r *OverrideRepository) ListOverrides(ctx context.Context) ([]override.Override, error) {
	all, err := r.redis.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading overrides")
	}
	overrides := make([]override.Override, 0, len(all))
	for _, value := range all {
		var m overrideModel
		if err := json.Unmarshal([]byte(value), &m); err != nil {
			return nil, errors.Wrap(err, "decoding override")
		}
		overrides = append(overrides, override.Override(m))
	}
	sort.Slice(overrides, func(i, j int) bool {
		if !overrides[i].UpdatedAt.Equal(overrides[j].UpdatedAt) {
			return overrides[i].UpdatedAt.Before(overrides[j].UpdatedAt)
		}
		return field(overrides[i].Key()) < field(overrides[j].Key())
	})
	return overrides, nil
}

func (r *OverrideRepository) UpsertOverride(ctx context.Context, o override.Override, ifStatus *string) (override.Override, error) {
	doc, err := json.Marshal(overrideModel(o))
	if err != nil {
		return override.Override{}, errors.Wrap(err, "encoding override")
	}
	f := field(o.Key())

	if ifStatus == nil {
		if err := r.redis.HSet(ctx, r.key, f, doc).Err(); err != nil {
			return override.Override{}, errors.Wrap(err, "writing override")
		}
		return o, nil
	}

	cas := func(tx *redis.Tx) error {
		var current string
		value, err := tx.HGet(ctx, r.key, f).Result()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			var m overrideModel
			if err := json.Unmarshal([]byte(value), &m); err != nil {
				return errors.Wrap(err, "decoding override")
			}
			current = m.Status
		}
		if current != *ifStatus {
			return override.ErrStatusConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.key, f, doc)
			return nil
		})
		return err
	}

	for i := 0; i < casAttempts; i++ {
		err = r.redis.Watch(ctx, cas, r.key)
		if err != redis.TxFailedErr {
			break
		}
	}
	if err != nil {
		if err == override.ErrStatusConflict {
			return override.Override{}, err
		}
		return override.Override{}, errors.Wrap(err, "writing override")
	}
	return o, nil
}
