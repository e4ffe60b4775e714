package db

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hyunsoolee/aptpulse/pkg/config"
)

type monthRecord struct {
	ID             int
	CollectedMonth string
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&monthRecord{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	if err := conn.Where("1 = 1").Delete(&monthRecord{}).Error; err != nil {
		t.Fatalf("failed to reset table: %v", err)
	}
	return &Client{conn: conn}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: "sqlite"}, nil); err == nil {
		t.Fatal("expected New without a DSN to fail")
	}
}

func TestNewSQLiteDriver(t *testing.T) {
	cfg := config.DBConfig{
		DSN:    "file::memory:?cache=shared",
		Driver: "sqlite",
	}
	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := newTestClient(t)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&monthRecord{CollectedMonth: "202305"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := client.DB().Model(&monthRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)

	ctx := context.Background()
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&monthRecord{CollectedMonth: "202306"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}

	var count int64
	if err := client.DB().Model(&monthRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave 0 records, got %d", count)
	}
}
