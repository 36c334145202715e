package ratetable

// Row is one line of the rate table
type Row struct {
	Code string `json:"code"`
	Rate string `json:"rate"`
}

// PageButton is one pagination control
type PageButton struct {
	Number int  `json:"number"`
	Active bool `json:"active"`
}

// Choice is one option of a select control
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Theme carries the CSS classes of the current color scheme
type Theme struct {
	Root     string `json:"root"`
	Panel    string `json:"panel"`
	Text     string `json:"text"`
	RowHover string `json:"row_hover"`
}

// Page is everything the renderer needs for one paint
type Page struct {
	Base        string       `json:"base"`
	Sort        SortOption   `json:"sort"`
	DarkMode    bool         `json:"dark_mode"`
	Loading     bool         `json:"loading"`
	Pending     bool         `json:"pending"`
	Rows        []Row        `json:"rows"`
	BaseOptions []Choice     `json:"base_options"`
	SortOptions []Choice     `json:"sort_options"`
	Pages       []PageButton `json:"pages"`
	CurrentPage int          `json:"current_page"`
	TotalPages  int          `json:"total_pages"`
	LastUpdated string       `json:"last_updated,omitempty"`
	Theme       Theme        `json:"theme"`

	RatesStatus      Status `json:"rates_status"`
	RatesError       string `json:"rates_error,omitempty"`
	CurrenciesStatus Status `json:"currencies_status"`
	CurrenciesError  string `json:"currencies_error,omitempty"`
}

var (
	lightTheme = Theme{Root: "", Panel: "bg-white", Text: "text-black", RowHover: "hover:bg-gray-100"}
	darkTheme  = Theme{Root: "dark", Panel: "bg-gray-800", Text: "text-white", RowHover: "hover:bg-gray-700"}
)

// ThemeFor returns the classes for the dark mode flag
func ThemeFor(darkMode bool) Theme {
	if darkMode {
		return darkTheme
	}
	return lightTheme
}

func buildPage(state ViewState, derived Derived, snapshot Snapshot, options Options) Page {
	page := Page{
		Base:             state.Base,
		Sort:             state.Sort,
		DarkMode:         state.DarkMode,
		Loading:          derived.Loading,
		Pending:          snapshot.RatesPending || snapshot.CurrenciesPending,
		Rows:             make([]Row, 0, len(derived.PageCodes)),
		BaseOptions:      make([]Choice, 0, len(snapshot.Currencies)),
		Pages:            make([]PageButton, 0, derived.TotalPages),
		CurrentPage:      derived.Page,
		TotalPages:       derived.TotalPages,
		Theme:            ThemeFor(state.DarkMode),
		RatesStatus:      snapshot.RatesStatus,
		CurrenciesStatus: snapshot.CurrenciesStatus,
		SortOptions: []Choice{
			{Value: string(SortByName), Label: "Sort by Name", Selected: state.Sort == SortByName},
			{Value: string(SortByRate), Label: "Sort by Rate", Selected: state.Sort == SortByRate},
		},
	}

	if !derived.Loading {
		for _, code := range derived.PageCodes {
			page.Rows = append(page.Rows, Row{Code: code, Rate: FormatRate(snapshot.Rates, code)})
		}
	}

	for _, code := range snapshot.Currencies {
		page.BaseOptions = append(page.BaseOptions, Choice{Value: code, Label: code, Selected: code == state.Base})
	}

	for number := 1; number <= derived.TotalPages; number++ {
		page.Pages = append(page.Pages, PageButton{Number: number, Active: number == derived.Page})
	}

	if snapshot.RatesStatus == StatusLoaded && snapshot.Timestamp != 0 {
		page.LastUpdated = FormatTimestamp(snapshot.Timestamp, options.Location, options.TimeLayout)
	}
	if snapshot.RatesError != nil {
		page.RatesError = snapshot.RatesError.Error()
	}
	if snapshot.CurrenciesError != nil {
		page.CurrenciesError = snapshot.CurrenciesError.Error()
	}
	return page
}
