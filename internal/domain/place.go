package domain

import (
	"sort"
	"strings"
	"sync"
)

// Place описывает логическое место, в котором игрок видит текст:
// чат, сообщение о кике, заголовок табло и т.д.
type Place struct {
	// Name — постоянное имя места, используемое при сохранении правил (GAME_CHAT).
	Name string `json:"name"`
	// ID — короткий код места, служит префиксом идентификаторов сообщений (GC).
	ID string `json:"id"`
	// FriendlyName — человекочитаемое название (Game Chat).
	FriendlyName string `json:"friendly_name"`
	// MinVersion — минимальная версия платформы, на которой место существует.
	MinVersion Version `json:"-"`
	// ChatLike — место является чатом или панелью действий, и текст
	// из него может быть перенаправлен в другое чатовое место.
	ChatLike bool `json:"chat_like"`
}

var (
	GameChat          = Place{Name: "GAME_CHAT", ID: "GC", FriendlyName: "Game Chat", MinVersion: VersionBountifulUpdate, ChatLike: true}
	SystemChat        = Place{Name: "SYSTEM_CHAT", ID: "SC", FriendlyName: "System Chat", MinVersion: VersionBountifulUpdate, ChatLike: true}
	ActionBar         = Place{Name: "ACTION_BAR", ID: "AB", FriendlyName: "Action Bar", MinVersion: VersionBountifulUpdate, ChatLike: true}
	Kick              = Place{Name: "KICK", ID: "K", FriendlyName: "Kick", MinVersion: VersionBountifulUpdate}
	Disconnect        = Place{Name: "DISCONNECT", ID: "D", FriendlyName: "Disconnect", MinVersion: VersionBountifulUpdate}
	BossBar           = Place{Name: "BOSS_BAR", ID: "BB", FriendlyName: "Boss Bar", MinVersion: VersionCombatUpdate}
	ScoreboardTitle   = Place{Name: "SCOREBOARD_TITLE", ID: "ST", FriendlyName: "Scoreboard Title", MinVersion: VersionBountifulUpdate}
	ScoreboardEntry   = Place{Name: "SCOREBOARD_ENTRY", ID: "SE", FriendlyName: "Scoreboard Entry", MinVersion: VersionBountifulUpdate}
	InventoryTitle    = Place{Name: "INVENTORY_TITLE", ID: "IT", FriendlyName: "Inventory Title", MinVersion: VersionBountifulUpdate}
	InventoryItemName = Place{Name: "INVENTORY_ITEM_NAME", ID: "ITN", FriendlyName: "Inventory Item Name", MinVersion: VersionBountifulUpdate}
	InventoryItemLore = Place{Name: "INVENTORY_ITEM_LORE", ID: "ITL", FriendlyName: "Inventory Item Lore", MinVersion: VersionBountifulUpdate}
	EntityName        = Place{Name: "ENTITY_NAME", ID: "EN", FriendlyName: "Entity Name", MinVersion: VersionBountifulUpdate}
)

// AllPlaces возвращает все известные места в каноническом порядке.
func AllPlaces() []Place {
	return []Place{
		GameChat, SystemChat, ActionBar, Kick, Disconnect, BossBar,
		ScoreboardTitle, ScoreboardEntry, InventoryTitle,
		InventoryItemName, InventoryItemLore, EntityName,
	}
}

// Equal сравнивает места по короткому коду.
func (p Place) Equal(other Place) bool {
	return p.ID == other.ID
}

func (p Place) String() string {
	return p.Name
}

// PlaceRegistry хранит упорядоченный список мест для заданной версии платформы
// и изменяемое множество мест, для которых включен анализ сообщений.
type PlaceRegistry struct {
	places    []Place
	version   Version
	supported map[string]bool

	mu        sync.RWMutex
	analyzing map[string]struct{}
}

// NewPlaceRegistry создает реестр мест для указанной версии платформы.
func NewPlaceRegistry(version Version) *PlaceRegistry {
	places := AllPlaces()
	supported := make(map[string]bool, len(places))
	for _, p := range places {
		supported[p.ID] = version.AtLeast(p.MinVersion)
	}

	return &PlaceRegistry{
		places:    places,
		version:   version,
		supported: supported,
		analyzing: make(map[string]struct{}),
	}
}

// Version возвращает версию платформы, для которой построен реестр.
func (r *PlaceRegistry) Version() Version {
	return r.version
}

// Places возвращает копию списка мест.
func (r *PlaceRegistry) Places() []Place {
	out := make([]Place, len(r.places))
	copy(out, r.places)
	return out
}

// Lookup ищет место по имени, дружественному имени или короткому коду без учета регистра.
func (r *PlaceRegistry) Lookup(name string) (Place, bool) {
	name = strings.TrimSpace(name)
	for _, p := range r.places {
		if strings.EqualFold(p.Name, name) || strings.EqualFold(p.FriendlyName, name) || strings.EqualFold(p.ID, name) {
			return p, true
		}
	}
	return Place{}, false
}

// IsSupported сообщает, существует ли место на текущей версии платформы.
func (r *PlaceRegistry) IsSupported(p Place) bool {
	return r.supported[p.ID]
}

// DefaultChatRedirected сообщает, что игровой чат на этой версии платформы
// доставляется через системный чат.
func (r *PlaceRegistry) DefaultChatRedirected() bool {
	return r.version.AtLeast(VersionWildUpdate)
}

// Canonical возвращает место, через которое платформа фактически доставляет текст.
func (r *PlaceRegistry) Canonical(p Place) Place {
	if p.Equal(GameChat) && r.DefaultChatRedirected() {
		return SystemChat
	}
	return p
}

// SameTarget сообщает, что оба места доставляют текст в одно и то же место.
func (r *PlaceRegistry) SameTarget(a, b Place) bool {
	return r.Canonical(a).Equal(r.Canonical(b))
}

// ChatPlaces возвращает места, доступные в качестве места назначения.
func (r *PlaceRegistry) ChatPlaces() []Place {
	var out []Place
	for _, p := range r.places {
		if !p.ChatLike || !r.IsSupported(p) {
			continue
		}
		if p.Equal(GameChat) && r.DefaultChatRedirected() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Activate включает анализ сообщений для места.
func (r *PlaceRegistry) Activate(p Place) error {
	if !r.IsSupported(p) {
		return ErrPlaceNotSupported
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.analyzing[p.ID]; ok {
		return ErrPlaceAlreadyAnalyzed
	}
	r.analyzing[p.ID] = struct{}{}
	return nil
}

// Deactivate выключает анализ сообщений для места.
func (r *PlaceRegistry) Deactivate(p Place) error {
	if !r.IsSupported(p) {
		return ErrPlaceNotSupported
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.analyzing[p.ID]; !ok {
		return ErrPlaceNotAnalyzed
	}
	delete(r.analyzing, p.ID)
	return nil
}

// DeactivateAll выключает анализ для всех мест и возвращает их количество.
func (r *PlaceRegistry) DeactivateAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.analyzing)
	r.analyzing = make(map[string]struct{})
	return n
}

// IsAnalyzing сообщает, включен ли анализ для места.
func (r *PlaceRegistry) IsAnalyzing(p Place) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.analyzing[p.ID]
	return ok
}

// Analyzing возвращает места с включенным анализом в каноническом порядке.
func (r *PlaceRegistry) Analyzing() []Place {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Place, 0, len(r.analyzing))
	for _, p := range r.places {
		if _, ok := r.analyzing[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PlaceNames возвращает отсортированные имена мест, удобные для подсказок.
func PlaceNames(places []Place) []string {
	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
