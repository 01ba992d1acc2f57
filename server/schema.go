package server

import (
	"net/http"
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
)

// IntentSchemas 每种客户端消息载荷的 JSON Schema，按消息类型索引
func IntentSchemas() map[string]*jsonschema.Schema {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			DoNotReference:             true,
		}
		payloads := map[string]any{
			MsgJoin:       new(JoinPayload),
			MsgMove:       new(MovePayload),
			MsgPlaceBlock: new(PlaceBlockPayload),
			MsgBedBreak:   new(BedBreakPayload),
			MsgPurchase:   new(PurchasePayload),
			MsgCollect:    new(CollectPayload),
			MsgLeave:      new(LeavePayload),
		}
		schemas = make(map[string]*jsonschema.Schema, len(payloads))
		for typ, p := range payloads {
			s := reflector.Reflect(p)
			s.Title = typ
			s.Description = "payload of a \"" + typ + "\" message"
			schemas[typ] = s
		}
	})
	return schemas
}

// HandleSchema GET /schema 返回全部入站消息的 Schema
func HandleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, IntentSchemas())
}
