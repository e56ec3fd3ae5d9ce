package stats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataflowBody = `{"data":{"dataflows":[
	{"id":"CPI","agencyID":"ABS","version":"1.0.0","name":"Consumer Price Index","description":"Quarterly price movements"},
	{"id":"ERP","agencyID":"ABS","version":"2.1.0","name":"Estimated Resident Population","description":"Population estimates by region"}
]}}`

func TestListDataflows(t *testing.T) {
	t.Parallel()

	var gotAccept, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(dataflowBody))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	flows, err := c.ListDataflows(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.sdmx.structure+json", gotAccept)
	assert.Equal(t, "/rest/dataflow", gotPath)
	require.Len(t, flows, 2)
	assert.Equal(t, "CPI", flows[0].ID)
	assert.Equal(t, "ABS", flows[0].AgencyID)
}

func TestListDataflows_KeywordFilters(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(dataflowBody))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	flows, err := c.ListDataflows(context.Background(), "population")
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "ERP", flows[0].ID)
}

func TestGetData(t *testing.T) {
	t.Parallel()

	var gotAccept, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("OBS_TIME,OBS_VALUE\n2024-Q1,3.6\n"))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	data, err := c.GetData(context.Background(), "CPI", "csv")
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.sdmx.data+csv", gotAccept)
	assert.Equal(t, "/rest/data/CPI/all", gotPath)
	assert.Contains(t, string(data), "OBS_VALUE")
}

func TestGetData_JSONAcceptDefault(t *testing.T) {
	t.Parallel()

	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"observations":[]}`))
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.GetData(context.Background(), "CPI", "json")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.sdmx.data+json", gotAccept)
}

func TestGetData_RequiresDataflowID(t *testing.T) {
	t.Parallel()

	c, err := New("http://localhost")
	require.NoError(t, err)

	_, err = c.GetData(context.Background(), "", "csv")
	require.Error(t, err)
}

func TestListDataflows_NonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.ListDataflows(context.Background(), "")
	require.Error(t, err)
}
