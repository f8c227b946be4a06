package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/tariff"
)

func setupTestDB(t *testing.T) *DB {
	tmpfile, err := os.CreateTemp("", "test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpfile.Close()

	t.Cleanup(func() {
		os.Remove(tmpfile.Name())
	})

	db, err := Open(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func date(y int, m time.Month, d int) *civil.Date {
	return &civil.Date{Year: y, Month: m, Day: d}
}

func seedTariffs(t *testing.T, db *DB) []tariff.Record {
	t.Helper()
	db.Tariffs.now = func() time.Time { return time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC) }

	records := []tariff.Record{
		{
			ForwarderName: "Cargo Uno", NavieraName: "Maersk",
			POL: "CNSHA", POD: "MXZLO", CountryID: "MX", Equipo: tariff.Equipment40HC,
			OceanFreight: tariff.ParseAmount("1800"), AmsImo: tariff.ParseAmount("35"), LibSeguro: tariff.ParseAmount("165"),
			FechaTarifa: date(2025, time.March, 1), VigenciaFin: date(2025, time.March, 31),
		},
		{
			ForwarderName: "Cargo Uno", NavieraName: "MSC",
			POL: "cnsha", POD: "mxzlo", CountryID: "MX", Equipo: tariff.Equipment20ST,
			AllIn:       tariff.ParseAmount("1200"),
			FechaTarifa: date(2025, time.February, 10), VigenciaFin: date(2025, time.March, 10),
		},
		{
			ForwarderName: "Logistica Pacifico",
			POL:           "KRPUS", POD: "MXMAN", CountryID: "MX", Equipo: tariff.Equipment40HC,
			OceanFreight: tariff.ParseAmount("2500"), TransitTime: tariff.ParseAmount("21"),
			FechaTarifa: date(2025, time.March, 5),
		},
	}

	for i := range records {
		require.NoError(t, db.Tariffs.Create(context.Background(), &records[i]))
	}
	return records
}

func TestTariffStore_Create(t *testing.T) {
	db := setupTestDB(t)
	records := seedTariffs(t, db)

	first := records[0]
	assert.NotZero(t, first.ID)
	assert.NotZero(t, first.ForwarderID)
	assert.NotZero(t, first.NavieraID)
	assert.Equal(t, "Cargo Uno | CNSHA-MXZLO (2025-03)", first.Name)
	assert.Equal(t, "2000", first.AllIn.Decimal.String())
	assert.Equal(t, tariff.StateActive, first.State)
	assert.Equal(t, 2025, first.Anio)
	assert.Equal(t, 3, first.Mes)
	assert.False(t, first.CreatedAt.IsZero())

	// Validity ended before "today" so it is stored expired
	assert.Equal(t, tariff.StateExpired, records[1].State)

	// Both Cargo Uno tariffs share one partner row
	assert.Equal(t, first.ForwarderID, records[1].ForwarderID)

	third := records[2]
	assert.Nil(t, third.VigenciaFin)
	assert.Zero(t, third.NavieraID)
	assert.True(t, third.AmsImo.IsNull())
	assert.Equal(t, "21", third.TransitTime.Decimal.String())
}

func TestTariffStore_CreateUnknownPartner(t *testing.T) {
	db := setupTestDB(t)

	r := &tariff.Record{ForwarderID: 99, POL: "CNSHA", POD: "MXZLO"}
	err := db.Tariffs.Create(context.Background(), r)
	assert.ErrorIs(t, err, ErrUnknownPartner)
}

func TestTariffStore_List(t *testing.T) {
	db := setupTestDB(t)
	records := seedTariffs(t, db)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter tariff.Filter
		want   []int64
	}{
		{"All", tariff.Filter{}, []int64{records[0].ID, records[1].ID, records[2].ID}},
		{"Forwarder", tariff.Filter{ForwarderID: records[0].ForwarderID}, []int64{records[0].ID, records[1].ID}},
		{"RouteIgnoresCase", tariff.Filter{POL: "CNSHA", POD: "mxzlo"}, []int64{records[0].ID, records[1].ID}},
		{"Equipment", tariff.Filter{Equipo: tariff.Equipment40HC}, []int64{records[0].ID, records[2].ID}},
		{"Period", tariff.Filter{Anio: 2025, Mes: 2}, []int64{records[1].ID}},
		{"State", tariff.Filter{State: tariff.StateActive, CountryID: "mx"}, []int64{records[0].ID, records[2].ID}},
		{"Carrier", tariff.Filter{NavieraID: records[1].NavieraID}, []int64{records[1].ID}},
		{"NoMatch", tariff.Filter{POL: "NLRTM"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Tariffs.List(ctx, tt.filter)
			require.NoError(t, err)

			ids := []int64{}
			for _, r := range got {
				ids = append(ids, r.ID)
				assert.True(t, tt.filter.Matches(r), "store returned a record the filter rejects")
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTariffStore_CountryGroupOpensItsTariffs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := tariff.Record{ForwarderName: "Cargo Uno", POL: "cnsha", POD: "mxzlo", CountryID: " mx ", AllIn: tariff.ParseAmount("900")}
	require.NoError(t, db.Tariffs.Create(ctx, &r))
	assert.Equal(t, "MX", r.CountryID)

	// Rows written before codes were normalized still match
	_, err := db.ExecContext(ctx, "UPDATE tariffs SET country_id = ' mx ' WHERE id = ?", r.ID)
	require.NoError(t, err)

	all, err := db.Tariffs.List(ctx, tariff.Filter{})
	require.NoError(t, err)
	groups := aggregator.TopByDimension(all, aggregator.ByCountry, -1, nil)
	require.Len(t, groups, 1)

	listed, err := db.Tariffs.List(ctx, groups[0].Key)
	require.NoError(t, err)
	assert.Len(t, listed, groups[0].Count)
}

func TestTariffStore_GetByIDAndDelete(t *testing.T) {
	db := setupTestDB(t)
	records := seedTariffs(t, db)
	ctx := context.Background()

	got, err := db.Tariffs.GetByID(ctx, records[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "Logistica Pacifico", got.ForwarderName)

	require.NoError(t, db.Tariffs.Delete(ctx, records[2].ID))

	_, err = db.Tariffs.GetByID(ctx, records[2].ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	err = db.Tariffs.Delete(ctx, records[2].ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestTariffStore_ExpireLapsed(t *testing.T) {
	db := setupTestDB(t)
	seedTariffs(t, db)
	ctx := context.Background()

	// Nothing lapsed yet on the seeding date
	changed, err := db.Tariffs.ExpireLapsed(ctx, civil.Date{Year: 2025, Month: time.March, Day: 31})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	changed, err = db.Tariffs.ExpireLapsed(ctx, civil.Date{Year: 2025, Month: time.April, Day: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	stats, err := db.Tariffs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 2, stats.Expired)
	assert.Equal(t, 0, stats.Other)
}

func TestTariffStore_GroupByState(t *testing.T) {
	db := setupTestDB(t)
	seedTariffs(t, db)

	groups, err := db.Tariffs.GroupByState(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, tariff.StateActive, groups[0].State)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "2250", groups[0].AvgAllIn.Decimal.String())

	assert.Equal(t, tariff.StateExpired, groups[1].State)
	assert.Equal(t, 1, groups[1].Count)
	assert.Equal(t, "1200", groups[1].AvgAllIn.Decimal.String())
}

func TestPartnerStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.Partners.Upsert(ctx, "Maersk", PartnerNaviera)
	require.NoError(t, err)

	again, err := db.Partners.Upsert(ctx, " Maersk ", PartnerNaviera)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = db.Partners.Upsert(ctx, "Maersk", PartnerForwarder)
	require.NoError(t, err)

	_, err = db.Partners.Upsert(ctx, "", PartnerForwarder)
	assert.Error(t, err)

	navieras, err := db.Partners.GetAll(ctx, PartnerNaviera)
	require.NoError(t, err)
	assert.Len(t, navieras, 1)

	all, err := db.Partners.GetAll(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	p, err := db.Partners.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PartnerNaviera, p.Kind)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.migrate())
	require.NoError(t, db.IsHealthy())
}
