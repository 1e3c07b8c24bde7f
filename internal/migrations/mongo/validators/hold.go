package validators

import "go.mongodb.org/mongo-driver/bson"

var HoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"patron_id",
			"item_id",
			"status",
			"open",
			"hold_date",
			"expiry_date",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"patron_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"item_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"pending", "available", "fulfilled", "cancelled", "expired"},
			},

			"open": bson.M{
				"bsonType": "bool",
			},

			"hold_date": bson.M{
				"bsonType": "date",
			},

			"expiry_date": bson.M{
				"bsonType": "date",
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
