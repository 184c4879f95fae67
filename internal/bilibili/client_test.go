package bilibili

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markqq/vidflow-desktop/internal/credential"
	"github.com/markqq/vidflow-desktop/internal/model"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url   string
		param string
		value string
		ok    bool
	}{
		{"https://www.bilibili.com/video/BV1xx411c7mD", "bvid", "BV1xx411c7mD", true},
		{"https://www.bilibili.com/video/bv1xx411c7mD/", "bvid", "BV1xx411c7mD", true},
		{"https://www.bilibili.com/video/av170001", "aid", "170001", true},
		{"https://b23.tv/something", "", "", false},
	}

	for _, test := range tests {
		id, ok := ExtractVideoID(test.url)
		require.Equal(t, test.ok, ok, "url %s", test.url)
		if ok {
			assert.Equal(t, test.param, id.Param)
			assert.Equal(t, test.value, id.Value)
		}
	}
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient()
	c.APIBase = srv.URL
	c.PassportBase = srv.URL
	return c
}

func TestCheckSessionValid(t *testing.T) {
	var gotCookie, gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte(`{"code":0,"data":{"uname":"tester","isLogin":true}}`))
	}))
	defer srv.Close()

	bundle := &credential.Bundle{Cookies: map[string]string{"SESSDATA": "abc"}, Platform: model.PlatformBilibili}
	identity, ok := newTestClient(srv).CheckSession(context.Background(), bundle)

	require.True(t, ok)
	assert.Equal(t, "tester", identity.Name)
	assert.Equal(t, "SESSDATA=abc", gotCookie)
	assert.Equal(t, UserAgent, gotUA)
	assert.Equal(t, Referer, gotReferer)
}

func TestCheckSessionInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"not logged in", `{"code":0,"data":{"isLogin":false}}`, http.StatusOK},
		{"api error code", `{"code":-101,"message":"not logged in","data":{}}`, http.StatusOK},
		{"http failure", `boom`, http.StatusForbidden},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.code)
				w.Write([]byte(test.body))
			}))
			defer srv.Close()

			bundle := &credential.Bundle{Cookies: map[string]string{"SESSDATA": "abc"}}
			identity, ok := newTestClient(srv).CheckSession(context.Background(), bundle)
			assert.False(t, ok)
			assert.Nil(t, identity)
		})
	}
}

func TestVideoView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BV1xx411c7mD", r.URL.Query().Get("bvid"))
		w.Write([]byte(`{"code":0,"data":{
			"bvid":"BV1xx411c7mD","aid":170001,"title":"Test Video","desc":"d",
			"pic":"https://i0.example.com/cover.jpg","pubdate":1700000000,
			"owner":{"name":"uploader","face":"https://i0.example.com/face.jpg"},
			"stat":{"like":10,"reply":2,"share":3,"favorite":4,"coin":5},
			"pages":[{"cid":1234,"page":1,"part":"P1"}]}}`))
	}))
	defer srv.Close()

	view, err := newTestClient(srv).VideoView(context.Background(), nil, VideoID{Param: "bvid", Value: "BV1xx411c7mD"})
	require.NoError(t, err)
	assert.Equal(t, "Test Video", view.Title)
	assert.Equal(t, int64(5), view.Stat.Coin)
	require.Len(t, view.Pages, 1)
	assert.Equal(t, int64(1234), view.Pages[0].CID)
	assert.Equal(t, "https://i0.example.com/cover.jpg", view.CoverURL())
}

func TestPlayInfoRequestsDash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, PlayURLQuality, q.Get("qn"))
		assert.Equal(t, PlayURLFnval, q.Get("fnval"))
		assert.Equal(t, PlayURLFourk, q.Get("fourk"))
		assert.Equal(t, "1234", q.Get("cid"))
		w.Write([]byte(`{"code":0,"data":{"quality":80,"dash":{
			"video":[{"id":80,"base_url":"https://cdn.example.com/v.m4v","bandwidth":2000000,"width":1920,"height":1080,"codecs":"avc1"}],
			"audio":[{"id":30280,"base_url":"https://cdn.example.com/a.m4a","bandwidth":128000,"codecs":"mp4a"}]}}}`))
	}))
	defer srv.Close()

	play, err := newTestClient(srv).PlayInfo(context.Background(), nil, "BV1xx411c7mD", 1234)
	require.NoError(t, err)
	require.NotNil(t, play.Dash)
	require.Len(t, play.Dash.Video, 1)
	assert.Equal(t, 80, play.Dash.Video[0].ID)
	require.Len(t, play.Dash.Audio, 1)
	assert.Equal(t, 128000, play.Dash.Audio[0].Bandwidth)
}

func TestGenerateAndPollQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/x/passport-login/web/qrcode/generate":
			w.Write([]byte(`{"code":0,"data":{"url":"https://passport.bilibili.com/qr/xyz","qrcode_key":"key123"}}`))
		case "/x/passport-login/web/qrcode/poll":
			assert.Equal(t, "key123", r.URL.Query().Get("qrcode_key"))
			http.SetCookie(w, &http.Cookie{Name: "SESSDATA", Value: "session-value"})
			http.SetCookie(w, &http.Cookie{Name: "bili_jct", Value: "csrf-value"})
			w.Write([]byte(`{"code":0,"data":{"code":0,"message":"","refresh_token":"rt-1"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv)

	qr, err := client.GenerateQR(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "key123", qr.Key)

	result, err := client.PollQR(context.Background(), qr.Key)
	require.NoError(t, err)
	assert.Equal(t, PollSuccess, result.Code)
	assert.Equal(t, "session-value", result.Cookies["SESSDATA"])
	assert.Equal(t, "csrf-value", result.Cookies["bili_jct"])
	assert.Equal(t, "rt-1", result.Cookies["refresh_token"])
}

func TestPollQRWaiting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"code":86101,"message":"not scanned"}}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv).PollQR(context.Background(), "key123")
	require.NoError(t, err)
	assert.Equal(t, PollWaiting, result.Code)
	assert.Empty(t, result.Cookies)
}
