package bolt

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

var (
	tasksBucket  = []byte("tasks")
	ownersBucket = []byte("owners")
)

// Store keeps task documents in a single BoltDB file. Each task is stored as
// JSON under its id; a nested bucket per owner indexes ids for ListByOwner.
type Store struct {
	db *bolt.DB
}

var _ repository.TaskStore = (*Store)(nil)

// Open initializes the BoltDB file and ensures the buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(tasksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(ownersBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	var task *domain.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		task, err = getTask(tx, id)
		return err
	})
	return task, err
}

func (s *Store) ListByOwner(_ context.Context, owner string) ([]domain.Task, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	tasks := make([]domain.Task, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(ownersBucket).Bucket([]byte(owner))
		if index == nil {
			return nil
		}
		return index.ForEach(func(k, _ []byte) error {
			task, err := getTask(tx, string(k))
			if err != nil {
				return err
			}
			tasks = append(tasks, *task)
			return nil
		})
	})
	return tasks, err
}

func (s *Store) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	created := *task
	created.ID = uuid.NewString()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := putTask(tx, &created); err != nil {
			return err
		}
		index, err := tx.Bucket(ownersBucket).CreateBucketIfNotExists([]byte(created.Owner))
		if err != nil {
			return err
		}
		return index.Put([]byte(created.ID), nil)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) Update(_ context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	var task *domain.Task
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		task, err = getTask(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(task)
		return putTask(tx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		task, err := getTask(tx, id)
		if err != nil {
			return err
		}
		if index := tx.Bucket(ownersBucket).Bucket([]byte(task.Owner)); index != nil {
			if err := index.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return tx.Bucket(tasksBucket).Delete([]byte(id))
	})
}

func (s *Store) Ping(_ context.Context) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(tasksBucket) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func getTask(tx *bolt.Tx, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	raw := tx.Bucket(tasksBucket).Get([]byte(id))
	if raw == nil {
		return nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func putTask(tx *bolt.Tx, task *domain.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return tx.Bucket(tasksBucket).Put([]byte(task.ID), payload)
}
