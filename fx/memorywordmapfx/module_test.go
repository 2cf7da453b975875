package memorywordmapfx

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/wordmap/wordmap"
	"github.com/wordmap/wordmap/internal/store/memstore"
)

func TestModule(t *testing.T) {
	var (
		client *wordmap.Client
		st     *memstore.Store
	)
	app := fxtest.New(t,
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&client, &st),
	)
	app.RequireStart()
	defer app.RequireStop()

	ctx := context.Background()
	st.Set("zh.tsv", []byte("ID\tText\n0102030405060708\t你好\n"))

	got, err := client.LoadTranslations(ctx, "zh.tsv")
	if err != nil {
		t.Fatalf("LoadTranslations() error = %v", err)
	}
	if got["0102030405060708"] != "你好" {
		t.Errorf("LoadTranslations() = %v", got)
	}

	st.Set("bad.bin", []byte("not an archive"))
	if _, err := client.ExtractArchive(ctx, "bad.bin"); !errors.Is(err, wordmap.ErrBadMagic) {
		t.Errorf("ExtractArchive() error = %v, want ErrBadMagic", err)
	}
}
