//go:build testutil
// +build testutil

package storage_test

import (
	"context"
	"testing"

	"github.com/Spok95/school-app-bot/internal/storage"
	"github.com/Spok95/school-app-bot/internal/testutil/testdb"
)

func TestPostgres_KV(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	s := storage.NewPostgres(h.DB, 100)

	if _, ok, err := s.Get(ctx, storage.KeyPushToken); err != nil || ok {
		t.Fatalf("пустая таблица: ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, storage.KeyPushToken, "tok-1"); err != nil {
		t.Fatal(err)
	}
	// upsert поверх существующего ключа
	if err := s.Set(ctx, storage.KeyPushToken, "tok-2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(ctx, storage.KeyPushToken)
	if err != nil || !ok || v != "tok-2" {
		t.Fatalf("ожидали tok-2: v=%q ok=%v err=%v", v, ok, err)
	}

	// ключи соседнего устройства не видны
	other := storage.NewPostgres(h.DB, 200)
	if _, ok, _ := other.Get(ctx, storage.KeyPushToken); ok {
		t.Fatal("ключи устройств должны быть изолированы по device_id")
	}

	if err := s.Delete(ctx, storage.KeyPushToken); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, storage.KeyPushToken); ok {
		t.Fatal("после удаления ключа быть не должно")
	}
}
