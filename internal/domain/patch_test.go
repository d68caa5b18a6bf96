package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeePatch_OnlyProvidedFields(t *testing.T) {
	var p EmployeePatch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"X","is_active":false,"salary":"1500.50","password":"ignored","schema":"other"}`), &p))

	f := p.Fields()
	assert.Len(t, f, 3)
	assert.Equal(t, "X", f["name"])
	assert.Equal(t, false, f["is_active"])
	assert.True(t, decimal.RequireFromString("1500.50").Equal(f["salary"].(decimal.Decimal)))
}

func TestServiceRecordPatch_DetailsAsText(t *testing.T) {
	var p ServiceRecordPatch
	require.NoError(t, json.Unmarshal([]byte(`{"details":{"oil":"5W-30"},"technician_ids":[3,4]}`), &p))

	f := p.Fields()
	assert.Equal(t, map[string]any{"details": `{"oil":"5W-30"}`}, f)
	require.NotNil(t, p.TechnicianIDs)
	assert.Equal(t, []int64{3, 4}, *p.TechnicianIDs)
}

func TestEmptyPatches(t *testing.T) {
	assert.Empty(t, OwnerPatch{}.Fields())
	assert.Empty(t, CenterPatch{}.Fields())
	assert.Empty(t, RolePatch{}.Fields())
	assert.Empty(t, PartPatch{}.Fields())
	assert.Empty(t, ServiceTypePatch{}.Fields())
	assert.Empty(t, ClientPatch{}.Fields())
}

func TestHistoryPointers(t *testing.T) {
	var h HistoryPointers
	require.NoError(t, h.Scan([]byte(`[{"schema":"service_a","record_id":1},{"schema":"repair_b","record_id":7},{"schema":"service_a","record_id":2}]`)))

	order, groups := h.BySchema()
	assert.Equal(t, []string{"service_a", "repair_b"}, order)
	assert.Equal(t, []int64{1, 2}, groups["service_a"])
	assert.Equal(t, []int64{7}, groups["repair_b"])

	v, err := HistoryPointers(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestCenterType_SchemaPrefix(t *testing.T) {
	for ct, want := range map[CenterType]string{
		CenterService:       "service_",
		CenterRepair:        "repair_",
		CenterServiceRepair: "service_repair_",
	} {
		got, err := ct.SchemaPrefix()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := CenterType("X").SchemaPrefix()
	assert.ErrorIs(t, err, ErrValidation)
}
