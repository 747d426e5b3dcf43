package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/viejopeter/myweather/internal/common"
	"github.com/viejopeter/myweather/internal/geo"
	"github.com/viejopeter/myweather/internal/search"
	"github.com/viejopeter/myweather/internal/weather"
)

//go:embed templates
var viewsFS embed.FS

var pageTmpl *template.Template

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	pageTmpl, err = template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads the embedded page templates. Call during startup
// before serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// CandidateOption is the view model for one selectable geocoding result.
type CandidateOption struct {
	Index int
	Label string
}

// WeatherView is the view model for the current-conditions panel.
type WeatherView struct {
	Place       string
	Temperature string
	FeelsLike   string
	Condition   string
	Humidity    string
	Wind        string
	Icon        string
}

// SessionView is the full page view model, a pure function of session state.
type SessionView struct {
	SessionID    string
	Phase        string
	Query        string
	RawInput     string
	Candidates   []CandidateOption
	NoResults    bool
	Weather      *WeatherView
	ErrorMessage string
	Theme        string
}

// NewSessionView derives the page view model from a state snapshot.
func NewSessionView(id string, st search.State) SessionView {
	v := SessionView{
		SessionID:    id,
		Phase:        string(st.Phase),
		Query:        st.CommittedQuery,
		RawInput:     st.RawInput,
		ErrorMessage: st.LastError,
		Theme:        string(weather.ThemeDay),
	}

	for i, c := range st.Candidates {
		v.Candidates = append(v.Candidates, CandidateOption{
			Index: i,
			Label: CandidateLabel(c),
		})
	}
	v.NoResults = st.Phase == search.PhaseResults && len(st.Candidates) == 0 && st.LastError == ""

	if st.Weather != nil {
		theme := st.Weather.Theme()
		v.Theme = string(theme)
		wv := WeatherView{
			Temperature: st.Weather.TemperatureLabel(),
			FeelsLike:   st.Weather.FeelsLikeLabel(),
			Condition:   st.Weather.ConditionTitle(),
			Humidity:    st.Weather.HumidityLabel(),
			Wind:        st.Weather.WindLabel(),
			Icon:        iconClass(st.Weather.ConditionCode, theme),
		}
		if st.Selection != nil {
			wv.Place = CandidateLabel(*st.Selection)
		}
		v.Weather = &wv
	}

	return v
}

// CandidateLabel renders a candidate as "Name, State, CC", omitting empty parts.
func CandidateLabel(c geo.Candidate) string {
	parts := []string{c.Name}
	if c.State != "" {
		parts = append(parts, c.State)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	return strings.Join(parts, ", ")
}

// iconClass maps an OpenWeather condition code to a Material Symbol name.
func iconClass(code string, theme weather.Theme) string {
	switch {
	case code == "Clear":
		if theme == weather.ThemeNight {
			return "clear_night"
		}
		return "sunny"
	case code == "Clouds":
		if theme == weather.ThemeNight {
			return "partly_cloudy_night"
		}
		return "partly_cloudy_day"
	case common.HasAny(code, "Rain", "Drizzle"):
		return "rainy"
	case code == "Thunderstorm":
		return "thunderstorm"
	case code == "Snow":
		return "weather_snowy"
	case common.HasAny(code, "Mist", "Fog", "Haze"):
		return "foggy"
	}
	return "thermostat"
}

// RenderIndex writes the landing page.
func RenderIndex(w io.Writer) error {
	if pageTmpl == nil {
		return errors.New("page templates not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "index.html", nil)
}

// RenderSession writes the search/weather page for one session.
func RenderSession(w io.Writer, v SessionView) error {
	if pageTmpl == nil {
		return errors.New("page templates not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "session.html", v)
}
