package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"medtimer/internal/router"
)

// nowParam arma el valor de ?now= en la zona local del proceso, que es la
// misma en la que se expanden las dosis.
func nowParam(t time.Time) string {
	return url.QueryEscape(t.Format(time.RFC3339))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	h, _, err := router.NewRouter(router.Options{})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}
	return httptest.NewServer(h)
}

func TestHTTP_EndToEnd_MedicationFlow(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	// 1) Registro y login
	{
		st, body := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
			"name":     "Ana",
			"age":      34,
			"username": "ana",
			"password": "secret123",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
		}
	}
	token := login(t, ts.URL, "ana", "secret123")

	// 2) Sin token no se entra
	{
		st, _ := doReq(t, ts.URL, "GET", "/medicines", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token, got %d", st)
		}
	}

	// 3) Alta de medicamentos: Aspirin 3 días 1 horario, Ibuprofen 2 días 2 horarios
	aspirin := saveMedicine(t, ts.URL, token, map[string]any{
		"name":       "Aspirin",
		"start_date": "2024-01-01",
		"days":       3,
		"times":      []string{"09:00"},
	})
	if len(aspirin.Doses) != 3 {
		t.Fatalf("expected 3 aspirin doses, got %d", len(aspirin.Doses))
	}
	ibuprofen := saveMedicine(t, ts.URL, token, map[string]any{
		"name":       "Ibuprofen",
		"start_date": "2024-01-01",
		"days":       2,
		"times":      []string{"08:00", "20:00"},
	})
	if len(ibuprofen.Doses) != 4 {
		t.Fatalf("expected 4 ibuprofen doses, got %d", len(ibuprofen.Doses))
	}

	// 4) Checklist del 1 de enero a las 09:05: tres dosis de hoy
	now := nowParam(time.Date(2024, 1, 1, 9, 5, 0, 0, time.Local))
	{
		st, body := doReq(t, ts.URL, "GET", "/checklist?now="+now, token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 checklist, got %d body=%s", st, string(body))
		}
		var resp struct {
			Items []struct {
				MedicineName string `json:"medicine_name"`
				Status       string `json:"status"`
			} `json:"items"`
			Score int `json:"score"`
		}
		mustUnmarshal(t, body, &resp)
		if len(resp.Items) != 3 {
			t.Fatalf("expected 3 items today, got %d body=%s", len(resp.Items), string(body))
		}
		if resp.Score != 0 {
			t.Fatalf("expected score 0 before any take, got %d", resp.Score)
		}
	}

	// 5) Tomar la aspirina de hoy; repetir es no-op
	doseID := aspirin.Doses[0].ID
	takePath := "/medicines/" + aspirin.ID + "/doses/" + doseID + "/take?now=" +
		nowParam(time.Date(2024, 1, 1, 9, 7, 0, 0, time.Local))
	{
		st, body := doReq(t, ts.URL, "POST", takePath, token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 take, got %d body=%s", st, string(body))
		}
		if !changedFrom(t, body) {
			t.Fatalf("expected changed=true on first take, body=%s", string(body))
		}

		st, body = doReq(t, ts.URL, "POST", takePath, token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 on repeated take, got %d body=%s", st, string(body))
		}
		if changedFrom(t, body) {
			t.Fatalf("expected changed=false on repeated take, body=%s", string(body))
		}
	}

	// 6) Score: 1 de 7 tomadas => floor(14.28) = 14
	{
		st, body := doReq(t, ts.URL, "GET", "/checklist?now="+now, token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 checklist, got %d", st)
		}
		var resp struct {
			Score int `json:"score"`
		}
		mustUnmarshal(t, body, &resp)
		if resp.Score != 14 {
			t.Fatalf("expected score 14, got %d body=%s", resp.Score, string(body))
		}
	}

	// 7) Reporte: 7 filas en orden canónico, la tomada On Time
	{
		st, body := doReq(t, ts.URL, "GET", "/report", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 report, got %d body=%s", st, string(body))
		}
		var resp struct {
			Score int `json:"score"`
			Rows  []struct {
				Medicine string `json:"medicine"`
				Taken    string `json:"taken"`
				Status   string `json:"status"`
			} `json:"rows"`
		}
		mustUnmarshal(t, body, &resp)
		if len(resp.Rows) != 7 {
			t.Fatalf("expected 7 report rows, got %d", len(resp.Rows))
		}
		if resp.Rows[0].Medicine != "Aspirin" || resp.Rows[0].Status != "On Time" {
			t.Fatalf("expected first row Aspirin On Time, got %+v", resp.Rows[0])
		}
		if resp.Rows[1].Taken != "-" || resp.Rows[1].Status != "Not Taken" {
			t.Fatalf("expected second row untaken, got %+v", resp.Rows[1])
		}
	}

	// 8) Export xlsx
	{
		st, body, hdr := doReqFull(t, ts.URL, "GET", "/report/export", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 export, got %d", st)
		}
		if ct := hdr.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if len(body) == 0 {
			t.Fatalf("expected non-empty workbook body")
		}
	}

	// 9) Borrar una dosis de ibuprofen, después el medicamento entero
	{
		st, body := doReq(t, ts.URL, "DELETE", "/medicines/"+ibuprofen.ID+"/doses/"+ibuprofen.Doses[0].ID, token, nil)
		if st != http.StatusOK || !changedFrom(t, body) {
			t.Fatalf("expected changed=true dose delete, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "DELETE", "/medicines/"+ibuprofen.ID, token, nil)
		if st != http.StatusOK || !changedFrom(t, body) {
			t.Fatalf("expected changed=true medicine delete, got %d body=%s", st, string(body))
		}

		// repetido: no-op, nunca 404
		st, body = doReq(t, ts.URL, "DELETE", "/medicines/"+ibuprofen.ID, token, nil)
		if st != http.StatusOK || changedFrom(t, body) {
			t.Fatalf("expected changed=false on repeated delete, got %d body=%s", st, string(body))
		}
	}

	// 10) Logout cierra la sesión de recordatorios
	{
		st, _ := doReq(t, ts.URL, "POST", "/auth/logout", token, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 logout, got %d", st)
		}
	}
}

func TestHTTP_Reminders_AtMostOncePerSession(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	registerUser(t, ts.URL, "bruno")
	token := login(t, ts.URL, "bruno", "secret123")

	saveMedicine(t, ts.URL, token, map[string]any{
		"name":       "Aspirin",
		"start_date": "2024-01-01",
		"days":       1,
		"times":      []string{"09:00"},
	})

	// el refresh del checklist dentro de la ventana encola la notificación
	inWindow := nowParam(time.Date(2024, 1, 1, 9, 0, 30, 0, time.Local))
	for i := 0; i < 3; i++ {
		st, _ := doReq(t, ts.URL, "GET", "/checklist?now="+inWindow, token, nil)
		if st != http.StatusOK {
			t.Fatalf("checklist #%d: expected 200, got %d", i, st)
		}
	}

	// a pesar de los tres refresh, una sola notificación
	if got := drain(t, ts.URL, token); len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got := drain(t, ts.URL, token); len(got) != 0 {
		t.Fatalf("expected drained queue, got %d", len(got))
	}

	// logout + login: sesión nueva, la misma dosis puede volver a sonar
	if st, _ := doReq(t, ts.URL, "POST", "/auth/logout", token, nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 logout, got %d", st)
	}
	token = login(t, ts.URL, "bruno", "secret123")

	if st, _ := doReq(t, ts.URL, "GET", "/checklist?now="+inWindow, token, nil); st != http.StatusOK {
		t.Fatalf("expected 200 checklist after relogin, got %d", st)
	}
	if got := drain(t, ts.URL, token); len(got) != 1 {
		t.Fatalf("expected re-fire after relogin, got %d", len(got))
	}
}

func TestHTTP_Register_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	registerUser(t, ts.URL, "carla")

	st, _ := doReq(t, ts.URL, "POST", "/auth/register", "", map[string]any{
		"name":     "Otra Carla",
		"age":      40,
		"username": "carla",
		"password": "secret123",
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", st)
	}

	// credenciales malas: mismo 401 para password y usuario desconocido
	if st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"username": "carla", "password": "wrong",
	}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 wrong password, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"username": "nobody", "password": "secret123",
	}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 unknown user, got %d", st)
	}
}

func TestHTTP_SaveMedicine_Validation(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	registerUser(t, ts.URL, "dora")
	token := login(t, ts.URL, "dora", "secret123")

	cases := []map[string]any{
		{"name": "A", "start_date": "01-01-2024", "days": 3, "times": []string{"09:00"}}, // fecha mal formada
		{"name": "A", "start_date": "2024-01-01", "days": 0, "times": []string{"09:00"}},
		{"name": "A", "start_date": "2024-01-01", "days": 366, "times": []string{"09:00"}},
		{"name": "A", "start_date": "2024-01-01", "days": 3, "times": []string{}},
		{"name": "A", "start_date": "2024-01-01", "days": 3, "times": []string{"1", "2", "3", "4", "5", "6"}},
		{"name": "A", "start_date": "2024-01-01", "days": 3, "times": []string{"25:00"}},
	}
	for i, payload := range cases {
		st, body := doReq(t, ts.URL, "POST", "/medicines", token, payload)
		if st != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d body=%s", i, st, string(body))
		}
	}
}

func TestHTTP_UsersAreIsolated(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	registerUser(t, ts.URL, "eva")
	registerUser(t, ts.URL, "fede")
	evaToken := login(t, ts.URL, "eva", "secret123")
	fedeToken := login(t, ts.URL, "fede", "secret123")

	m := saveMedicine(t, ts.URL, evaToken, map[string]any{
		"name":       "Aspirin",
		"start_date": "2024-01-01",
		"days":       1,
		"times":      []string{"09:00"},
	})

	// fede no ve ni puede tocar lo de eva
	{
		st, body := doReq(t, ts.URL, "GET", "/medicines", fedeToken, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200, got %d", st)
		}
		var list []json.RawMessage
		mustUnmarshal(t, body, &list)
		if len(list) != 0 {
			t.Fatalf("expected empty list for other user, got %d", len(list))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/medicines/"+m.ID+"/doses/"+m.Doses[0].ID+"/take", fedeToken, nil)
		if st != http.StatusOK || changedFrom(t, body) {
			t.Fatalf("expected foreign take no-op, got %d body=%s", st, string(body))
		}
	}
}

// -------------------------
// Helpers
// -------------------------

type medicinePayload struct {
	ID    string `json:"id"`
	Doses []struct {
		ID string `json:"id"`
	} `json:"doses"`
}

func registerUser(t *testing.T, baseURL, username string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/register", "", map[string]any{
		"name":     username,
		"age":      30,
		"username": username,
		"password": "secret123",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}
}

func login(t *testing.T, baseURL, username, password string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}

	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	mustUnmarshal(t, body, &resp)
	if resp.Token == "" {
		t.Fatalf("login: missing token body=%s", string(body))
	}
	return resp.Token
}

func saveMedicine(t *testing.T, baseURL, token string, payload map[string]any) medicinePayload {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/medicines", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 save medicine, got %d body=%s", st, string(body))
	}

	var resp medicinePayload
	mustUnmarshal(t, body, &resp)
	if resp.ID == "" {
		t.Fatalf("save medicine: missing id body=%s", string(body))
	}
	return resp
}

func drain(t *testing.T, baseURL, token string) []json.RawMessage {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/reminders", token, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 reminders, got %d body=%s", st, string(body))
	}
	var out []json.RawMessage
	mustUnmarshal(t, body, &out)
	return out
}

func changedFrom(t *testing.T, body []byte) bool {
	t.Helper()

	var resp struct {
		Changed bool `json:"changed"`
	}
	mustUnmarshal(t, body, &resp)
	return resp.Changed
}

func mustUnmarshal(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("json unmarshal: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, token string, body any) (int, []byte) {
	t.Helper()
	st, b, _ := doReqFull(t, baseURL, method, path, token, body)
	return st, b
}

func doReqFull(t *testing.T, baseURL, method, path, token string, body any) (int, []byte, http.Header) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody, res.Header
}
