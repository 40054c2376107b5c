package domain

import "sort"

// ListenerPlaces сопоставляет имена перехватчиков пакетов с местами,
// текст которых они обрабатывают.
var ListenerPlaces = map[string][]Place{
	"chat":             {GameChat, SystemChat, ActionBar},
	"kick":             {Kick},
	"disconnect":       {Disconnect},
	"bossbar":          {BossBar},
	"scoreboard-title": {ScoreboardTitle},
	"scoreboard-entry": {ScoreboardEntry},
	"inventory-title":  {InventoryTitle},
	"inventory-item":   {InventoryItemName, InventoryItemLore},
	"entity-name":      {EntityName},
}

// ListenerNames возвращает имена перехватчиков в алфавитном порядке.
func ListenerNames() []string {
	names := make([]string, 0, len(ListenerPlaces))
	for name := range ListenerPlaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
