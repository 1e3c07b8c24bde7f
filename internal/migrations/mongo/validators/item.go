package validators

import "go.mongodb.org/mongo-driver/bson"

var ItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"barcode",
			"total_copies",
			"available_copies",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"barcode": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"total_copies": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"available_copies": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
		},
	},
	// available_copies never exceeds total_copies
	"$expr": bson.M{
		"$lte": bson.A{"$available_copies", "$total_copies"},
	},
}
