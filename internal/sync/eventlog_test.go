package syncx_test

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-qbank/internal/db"
	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

func TestEventRepoAppendList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:eventlog_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()

	repo := syncx.NewEventRepo(dbh, "")
	for _, typ := range []string{"AgencyCreated", "AgencyPatched", "AgencyDeleted"} {
		if err := repo.Append(ctx, syncx.Event{Type: typ, Key: "agency/1", ChangeID: "c-" + typ, DataJSON: `{"id":1}`}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].SiteID != "local" || all[0].CreatedAt == 0 {
		t.Fatalf("events: %+v", all)
	}
	if all[2].Offset <= all[1].Offset || all[1].Offset <= all[0].Offset {
		t.Fatalf("offsets not increasing: %+v", all)
	}

	page, err := repo.List(ctx, all[0].Offset, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Type != "AgencyPatched" {
		t.Fatalf("page: %+v", page)
	}
}
