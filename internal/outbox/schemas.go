package outbox

const summaryUpdatedSchema = `{
  "type": "object",
  "title": "SummaryUpdated",
  "properties": {
    "user_id": {"type": "string"},
    "date": {"type": "string"},
    "focus_score": {"type": "integer"},
    "total_productive_time": {"type": "integer"},
    "total_non_productive_time": {"type": "integer"},
    "overall_total_usage": {"type": "integer"},
    "max_productive_app": {"type": "string"},
    "most_used_app": {"type": "string"},
    "updated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "date", "focus_score", "total_productive_time", "total_non_productive_time", "overall_total_usage", "updated_at"],
  "additionalProperties": false
}`
