package utils

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/distribution_backend/config"
)

var mutex sync.Mutex

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

/* Redis */

// store list, TypeList
func StoreRedisList[T any](list []*T) error {
	return config.SetRedisObject(GetTypeName[T]()+"List", list, GetCacheLifespan())
}

// retrieve list, nil if not cached
func RetrieveRedisList[T any]() ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(GetTypeName[T]()+"List", &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList
func RemoveRedisList[T any]() error {
	return config.RemoveRedisKey(GetTypeName[T]() + "List")
}

func sequenceKey[T any]() string {
	return strings.ToLower(GetTypeName[T]()) + "_seq"
}

// maxSequenceAttempts bounds how many taken numbers GetSequence skips before giving up.
const maxSequenceAttempts = 50

var errSequenceExhausted = errors.New("no free document sequence number")

// GetSequence returns the next document sequence for T.
// The redis counter is seeded from max(sequence_no) when it starts fresh, and a
// redis lock keeps concurrent instances from handing out the same number.
func GetSequence[T any](ctx context.Context) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()

	cacheKey := sequenceKey[T]()
	lock, err := ObtainLock(ctx, cacheKey, 5*time.Second)
	if err != nil {
		return 0, err
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	db := config.GetDB()
	next := func(ctx context.Context) (int64, error) {
		seqNo, err := config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		if seqNo > 1 {
			return seqNo, nil
		}
		// counter is fresh (or redis is down): continue from the db
		var dbSeq *int64
		if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
			Scan(&dbSeq).Error; err != nil {
			return 0, err
		}
		seqNo = 1
		if dbSeq != nil {
			seqNo = *dbSeq + 1
		}
		return seqNo, config.SetRedisCounter(ctx, cacheKey, seqNo)
	}
	isFree := func(ctx context.Context, seqNo int64) error {
		return ValidateUnique[T](ctx, "sequence_no", seqNo, 0)
	}
	return claimSequence(ctx, next, isFree)
}

// claimSequence draws numbers from next until isFree accepts one. Taken numbers
// (ErrorDuplicateValue) are skipped; any other error ends the search.
func claimSequence(ctx context.Context,
	next func(context.Context) (int64, error),
	isFree func(context.Context, int64) error) (int64, error) {

	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		seqNo, err := next(ctx)
		if err != nil {
			return 0, err
		}
		err = isFree(ctx, seqNo)
		if err == nil {
			return seqNo, nil
		}
		if !errors.Is(err, ErrorDuplicateValue) {
			return 0, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return 0, errSequenceExhausted
}
